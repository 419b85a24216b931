package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/pausecomplete/internal/formatter"
	"github.com/oakwood-commons/pausecomplete/internal/replay"
	"github.com/oakwood-commons/pausecomplete/pkg/logger"
	"github.com/oakwood-commons/pausecomplete/pkg/settings"
)

// versionString builds the human-readable version for `version` and --version.
func versionString() string {
	v := settings.VersionInformation
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)",
		settings.CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime, runtime.Version())
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print pausecomplete version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), versionString())
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  "Print the embedded defaults merged with the config file and command line flags.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := formatter.ParseFormat(output)
		if err != nil {
			return err
		}
		if format == formatter.FormatList {
			format = formatter.FormatYAML
		}
		out, err := formatter.Render(runCfg, format)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

var pausesCmd = &cobra.Command{
	Use:   "pauses",
	Short: "List the pauses and frames of a recording",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := formatter.ParseFormat(output)
		if err != nil {
			return err
		}
		if recordingPath == "" {
			return fmt.Errorf("--recording is required")
		}
		rec, err := replay.Load(recordingPath)
		if err != nil {
			return err
		}
		logger.FromContext(cmd.Context()).V(1).Info("listing pauses", logger.RecordingKey, recordingPath, "pauses", len(rec.Pauses))

		out, err := formatter.Render(newPausesReport(rec), format)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

type pausesReport struct {
	Recording string         `json:"recording,omitempty" yaml:"recording,omitempty" toml:"recording,omitempty"`
	Pauses    []pauseSummary `json:"pauses" yaml:"pauses" toml:"pauses"`
}

type pauseSummary struct {
	ID     string         `json:"id" yaml:"id" toml:"id"`
	Point  string         `json:"point,omitempty" yaml:"point,omitempty" toml:"point,omitempty"`
	Frames []frameSummary `json:"frames" yaml:"frames" toml:"frames"`
}

type frameSummary struct {
	ID       string   `json:"id" yaml:"id" toml:"id"`
	Function string   `json:"function,omitempty" yaml:"function,omitempty" toml:"function,omitempty"`
	Location string   `json:"location,omitempty" yaml:"location,omitempty" toml:"location,omitempty"`
	Scopes   []string `json:"scopes" yaml:"scopes" toml:"scopes"`
}

func newPausesReport(rec *replay.Recording) pausesReport {
	r := pausesReport{Recording: rec.Name, Pauses: make([]pauseSummary, 0, len(rec.Pauses))}
	for _, p := range rec.Pauses {
		ps := pauseSummary{ID: p.ID, Point: p.Point, Frames: make([]frameSummary, 0, len(p.Frames))}
		for _, f := range p.Frames {
			fs := frameSummary{ID: f.ID, Function: f.Function, Location: f.Location, Scopes: make([]string, 0, len(f.Scopes))}
			for _, s := range f.Scopes {
				fs.Scopes = append(fs.Scopes, s.Kind)
			}
			ps.Frames = append(ps.Frames, fs)
		}
		r.Pauses = append(r.Pauses, ps)
	}
	return r
}

func (f frameSummary) label() string {
	label := f.ID
	if f.Function != "" {
		label += " " + f.Function
	}
	if f.Location != "" {
		label += " @ " + f.Location
	}
	return label
}

func (p pauseSummary) label() string {
	if p.Point == "" {
		return p.ID
	}
	return p.ID + " " + p.Point
}

// Lines prints one line per pause followed by its frames.
func (r pausesReport) Lines() []string {
	var lines []string
	for _, p := range r.Pauses {
		lines = append(lines, p.label())
		for _, f := range p.Frames {
			lines = append(lines, "  "+f.label()+" ["+strings.Join(f.Scopes, ", ")+"]")
		}
	}
	return lines
}

// Tree nests frames and scopes below their pause.
func (r pausesReport) Tree() formatter.Node {
	label := r.Recording
	if label == "" {
		label = "recording"
	}
	root := formatter.Node{Label: label}
	for _, p := range r.Pauses {
		pn := formatter.Node{Label: p.label()}
		for _, f := range p.Frames {
			fn := formatter.Node{Label: f.label()}
			for _, s := range f.Scopes {
				fn.Children = append(fn.Children, formatter.Node{Label: s})
			}
			pn.Children = append(pn.Children, fn)
		}
		root.Children = append(root.Children, pn)
	}
	return root
}
