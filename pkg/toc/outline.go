package toc

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Sriram-PR/folio/pkg/models"
)

const (
	indentPrefix    = "    "
	entryPrefix     = "├── "
	lastEntryPrefix = "└── "
	verticalLine    = "│   "
)

// WriteOutline writes the heading forest as a text tree. Collapsible entries
// are marked [+] (collapsed) or [-] (expanded) and the active entry with *.
// A nil state prints every entry expanded with nothing active.
func WriteOutline(w io.Writer, headings []*models.Heading, state *State) error {
	writer := bufio.NewWriter(w)

	if len(headings) == 0 {
		if _, err := fmt.Fprintln(writer, EmptyMessage); err != nil {
			return err
		}
		return writer.Flush()
	}

	if err := writeLevel(writer, headings, state, ""); err != nil {
		return err
	}
	return writer.Flush()
}

func writeLevel(w io.Writer, headings []*models.Heading, state *State, currentIndent string) error {
	active := ""
	if state != nil {
		active = state.Active()
	}

	for i, h := range headings {
		isLast := i == len(headings)-1

		connector := entryPrefix
		if isLast {
			connector = lastEntryPrefix
		}

		expanded := state == nil || state.IsExpanded(h.ID)
		marker := ""
		if len(h.Subheadings) > 0 {
			if expanded {
				marker = "[-] "
			} else {
				marker = "[+] "
			}
		}
		if active != "" && h.ID == active {
			marker += "* "
		}

		if _, err := fmt.Fprintf(w, "%s%s%s%s (#%s)\n", currentIndent, connector, marker, h.Text, h.ID); err != nil {
			return err
		}

		if len(h.Subheadings) > 0 && expanded {
			nextIndent := currentIndent
			if isLast {
				nextIndent += indentPrefix
			} else {
				nextIndent += verticalLine
			}
			if err := writeLevel(w, h.Subheadings, state, nextIndent); err != nil {
				return err
			}
		}
	}
	return nil
}
