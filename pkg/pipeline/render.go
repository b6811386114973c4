package pipeline

import (
	"context"

	"github.com/matzehuels/blockfmt/pkg/dump"
	"github.com/matzehuels/blockfmt/pkg/errors"
	"github.com/matzehuels/blockfmt/pkg/wrapper"
)

// Render renders a dump of tree in the requested format.
func Render(ctx context.Context, tree *wrapper.Tree, opts Options, dopts DumpOptions) ([]byte, error) {
	indent := opts.Settings.Indent
	switch dopts.Format {
	case FormatJSON:
		data, err := dump.JSON(tree, indent)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode dump")
		}
		return data, nil
	case FormatText:
		return []byte(dump.Text(tree, indent)), nil
	case FormatDOT:
		return []byte(dump.ToDOT(tree, indent, dump.DOTOptions{Detailed: dopts.Detailed})), nil
	case FormatSVG:
		dot := dump.ToDOT(tree, indent, dump.DOTOptions{Detailed: dopts.Detailed})
		data, err := dump.RenderSVG(ctx, dot)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render svg")
		}
		return data, nil
	default:
		return nil, ValidateFormat(dopts.Format)
	}
}
