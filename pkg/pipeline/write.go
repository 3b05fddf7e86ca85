package pipeline

import (
	"bytes"
	"context"
	"html/template"
	"os"
	"path/filepath"

	"github.com/matzehuels/tileview/pkg/assets"
	"github.com/matzehuels/tileview/pkg/buildinfo"
	"github.com/matzehuels/tileview/pkg/errors"
	"github.com/matzehuels/tileview/pkg/observability"
)

// Write stores each document as FrameFile(i, "svg") and
// FrameFile(i, "html") in opts.Output, together with the stylesheets.
func (r *Runner) Write(ctx context.Context, docs []Document, opts Options) error {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if err := os.MkdirAll(opts.Output, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeRenderFailed, err, "create %s", opts.Output)
	}

	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFile(ctx, opts.Output, FrameFile(d.Frame, "svg"), []byte(d.SVG)); err != nil {
			return err
		}
		if err := writeFile(ctx, opts.Output, FrameFile(d.Frame, "html"), []byte(d.HTML)); err != nil {
			return err
		}
	}

	if err := assets.Write(opts.Output); err != nil {
		return errors.Wrap(errors.ErrCodeRenderFailed, err, "write stylesheets")
	}
	opts.Logger.Debug("wrote documents", "frames", len(docs), "dir", opts.Output)
	return nil
}

func writeFile(ctx context.Context, dir, name string, data []byte) error {
	if err := errors.ValidateAssetName(name); err != nil {
		return err
	}
	path := filepath.Join(dir, name)
	err := os.WriteFile(path, data, 0644)
	observability.Pipeline().OnWrite(ctx, path, len(data), err)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRenderFailed, err, "write %s", name)
	}
	return nil
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>tileview</title>
<link rel="stylesheet" type="text/css" href="{{.Stylesheet}}">
</head>
<body>
<div id="container">
<div class="header">Tile cache capture</div>
<div class="data">{{len .Frames}} frames, max slice {{.MaxSlice}}, {{.Tiles}} tiles</div>
<div class="data">run {{.RunID}} &middot; tileview {{.Version}}</div>
<table class="frames">
<tr><th>frame</th><th>tiles</th><th>skipped</th><th>max slice</th><th>source</th></tr>
{{- range .Frames}}
<tr><td><a href="{{.SVG}}">{{.Index}}</a> <a href="{{.HTML}}">report</a></td><td>{{.Tiles}}</td><td>{{.Skipped}}</td><td>{{.MaxSlice}}</td><td>{{.Source}}</td></tr>
{{- end}}
</table>
</div>
</body>
</html>
`))

// writeIndex writes the index page linking every frame of result.
func writeIndex(ctx context.Context, result *Result) error {
	var buf bytes.Buffer
	err := indexTemplate.Execute(&buf, struct {
		Stylesheet string
		RunID      string
		Version    string
		MaxSlice   int
		Tiles      int
		Frames     []FrameResult
	}{assets.BaseStylesheet, result.RunID, buildinfo.Version, result.MaxSlice, result.Stats.TileCount, result.Frames})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "index template")
	}
	return writeFile(ctx, result.Output, IndexFile, buf.Bytes())
}
