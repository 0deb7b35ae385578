package site

import (
	"bytes"
	_ "embed"
	"fmt"
	"math"
	"strconv"
	"text/template"
)

//go:embed templates/toc.js.tmpl
var tocScriptSource string

var tocScriptTemplate = template.Must(template.New("toc.js").Parse(tocScriptSource))

// ScriptOptions are the tracker settings carried into the browser script
type ScriptOptions struct {
	RootMarginTop    float64 // Fraction of the viewport, e.g. -0.2
	RootMarginBottom float64
	Threshold        float64
}

// RenderTOCScript renders assets/toc.js. Margins become an IntersectionObserver
// rootMargin such as "-20% 0px -80% 0px".
func RenderTOCScript(opts ScriptOptions) ([]byte, error) {
	data := struct {
		RootMargin string
		Threshold  string
	}{
		RootMargin: fmt.Sprintf("%s%% 0px %s%% 0px", percent(opts.RootMarginTop), percent(opts.RootMarginBottom)),
		Threshold:  strconv.FormatFloat(opts.Threshold, 'f', -1, 64),
	}
	var buf bytes.Buffer
	if err := tocScriptTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render toc.js: %w", err)
	}
	return buf.Bytes(), nil
}

func percent(f float64) string {
	// Two decimals hide float noise such as -20.000000000000004
	return strconv.FormatFloat(math.Round(f*10000)/100, 'f', -1, 64)
}
