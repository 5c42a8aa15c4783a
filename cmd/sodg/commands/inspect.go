package commands

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/haivivi/sodg/pkg/cli"
	"github.com/haivivi/sodg/pkg/dump"
	"github.com/haivivi/sodg/pkg/storage"
)

var (
	inspectOut   string
	inspectForce bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <snapshot>",
	Short: "Dump a snapshot",
	Long: `Dump a snapshot. Formats:
  yaml, json  every vertex with its edges, hex payload and BLAKE3 digest
  raw         a deployment script that rebuilds the graph
  pretty      a summary card

With --out the dump is written to a file (or an S3 object with --bucket).
An existing file is only replaced with --force.

Examples:
  sodg inspect main
  sodg inspect main -o raw > main.sodg
  sodg inspect main -o json --out dumps/main.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		format, err := outputFormat()
		if err != nil {
			return err
		}
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		meta, err := e.snaps.Stat(ctx, args[0])
		if err != nil {
			return err
		}
		g, err := e.snaps.Load(ctx, args[0])
		if err != nil {
			return err
		}
		d := dump.Of(g)

		var buf bytes.Buffer
		switch format {
		case cli.FormatRaw:
			if ids := dump.EmptyPayloads(g); len(ids) > 0 {
				cli.PrintWarning(cmd.ErrOrStderr(), "empty payloads of %v have no script form and are left out", ids)
			}
			buf.WriteString(dump.Script(g))
		case cli.FormatPretty:
			buf.WriteString(renderCard(meta.Name, d))
			buf.WriteByte('\n')
		default:
			if err := cli.Encode(&buf, d, format, ""); err != nil {
				return err
			}
		}

		if inspectOut == "" {
			_, err := io.Copy(cmd.OutOrStdout(), &buf)
			return err
		}
		path, err := e.resolve("", inspectOut)
		if err != nil {
			return err
		}
		if !inspectForce {
			exists, err := e.files.Exists(ctx, path)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("%s already exists (use --force)", inspectOut)
			}
		}
		if err := storage.WriteFile(ctx, e.files, path, buf.Bytes()); err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "wrote %s (%s)", inspectOut, cli.FormatBytes(int64(buf.Len())))
		return nil
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectOut, "out", "", "write the dump to this path instead of stdout")
	inspectCmd.Flags().BoolVar(&inspectForce, "force", false, "overwrite an existing --out file")
	rootCmd.AddCommand(inspectCmd)
}

func renderCard(name string, d *dump.Graph) string {
	st := d.Stats()
	card := cli.Card{
		Styles: cli.NewStyles(cli.DefaultTheme),
		Title:  name,
		Fields: []cli.Field{
			{Label: "vertices", Value: strconv.Itoa(st.Vertices)},
			{Label: "edges", Value: strconv.Itoa(st.Edges)},
			{Label: "payloads", Value: fmt.Sprintf("%d (%s)", st.Payloads, cli.FormatBytes(int64(st.Bytes)))},
			{Label: "next id", Value: strconv.FormatUint(uint64(d.Next), 10)},
			{Label: "fingerprint", Value: d.Fingerprint},
		},
	}
	for _, v := range d.Vertices {
		sec := cli.Section{Label: fmt.Sprintf("ν%d", v.ID)}
		for _, e := range v.Edges {
			sec.Lines = append(sec.Lines, fmt.Sprintf("%s → ν%d", e.Label, e.To))
		}
		if v.Full {
			sec.Lines = append(sec.Lines, fmt.Sprintf("Δ %s", v.Data))
		}
		card.Sections = append(card.Sections, sec)
	}
	return card.Render()
}
