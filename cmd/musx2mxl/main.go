// Package main is the entry point for the musx2mxl CLI
package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/james-see/musx2mxl/pkg/api"
	"github.com/james-see/musx2mxl/pkg/converter"
	"github.com/james-see/musx2mxl/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	outputFile   string
	metadataFile string
	configFile   string

	cfg  *Config
	conv *converter.Converter
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "musx2mxl",
	Short: "Convert Finale scores to MusicXML",
	Long: `musx2mxl converts Finale .musx scores, and EnigmaXML extracted from them,
to MusicXML 4.0. Scores can also be rendered as MIDI files.

Examples:
  musx2mxl musx2mxl score.musx
  musx2mxl musx2midi score.musx -o score.mid
  musx2mxl convert score.enigmaxml --metadata NotationMetadata.xml -o score.musicxml
  musx2mxl inspect score.musx
  musx2mxl tui
  musx2mxl serve --port 8080`,
	Version:           fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: setup,
	SilenceUsage:      true,
}

var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Auto-detect and convert between formats",
	Long:  `Automatically detects input format and converts to the output format based on file extension.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

var musx2mxlCmd = &cobra.Command{
	Use:   "musx2mxl <input.musx>",
	Short: "Convert .musx to compressed MusicXML",
	Args:  cobra.ExactArgs(1),
	RunE:  runTo(converter.FormatMXL),
}

var musx2musicxmlCmd = &cobra.Command{
	Use:   "musx2musicxml <input.musx>",
	Short: "Convert .musx to uncompressed MusicXML",
	Args:  cobra.ExactArgs(1),
	RunE:  runTo(converter.FormatMusicXML),
}

var musx2midiCmd = &cobra.Command{
	Use:   "musx2midi <input.musx>",
	Short: "Render .musx as a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTo(converter.FormatMIDI),
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <input>",
	Short: "List the parts of a score and the problems found converting it",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("output-dir", "", "Directory for outputs without an explicit path")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (yaml, json or toml)")

	// Convert command
	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (required)")
	convertCmd.Flags().StringVar(&metadataFile, "metadata", "", "NotationMetadata.xml for an .enigmaxml input")
	_ = convertCmd.MarkFlagRequired("output")

	musx2mxlCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mxl file path")
	musx2musicxmlCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .musicxml file path")
	musx2midiCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")
	inspectCmd.Flags().StringVar(&metadataFile, "metadata", "", "NotationMetadata.xml for an .enigmaxml input")

	// serve command
	serveCmd.Flags().IntP("port", "p", 8080, "Server port")

	// Add commands
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(musx2mxlCmd)
	rootCmd.AddCommand(musx2musicxmlCmd)
	rootCmd.AddCommand(musx2midiCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

// setup resolves the configuration and builds the shared converter before
// any command runs
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = loadConfig(configFile, cmd.Flags(), cmd.InheritedFlags())
	if err != nil {
		return err
	}
	initLogger(cfg.Verbose)
	conv = converter.New(converter.Options{Logger: logger, Software: cfg.Software})
	return nil
}

func getOutputPath(input, defaultExt string) string {
	if outputFile != "" {
		return outputFile
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + defaultExt
	if cfg != nil && cfg.OutputDir != "" {
		return filepath.Join(cfg.OutputDir, base)
	}
	return filepath.Join(filepath.Dir(input), base)
}

func printWarnings(res *converter.ConversionResult) {
	if len(res.Warnings) == 0 {
		return
	}
	fmt.Printf("%d warning(s):\n", len(res.Warnings))
	for _, w := range res.Warnings {
		fmt.Printf("  %s\n", w)
	}
}

// convertWithMetadata converts an EnigmaXML file paired with a separate
// metadata file
func convertWithMetadata(input, output string) (*converter.ConversionResult, error) {
	scoreData, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	meta, err := os.ReadFile(metadataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}
	res, err := conv.Convert(bytes.NewReader(scoreData), bytes.NewReader(meta))
	if err != nil {
		return nil, err
	}
	if output == "" {
		return res, nil
	}
	to := converter.DetectFormat(output)
	if to == converter.FormatUnknown {
		return nil, errors.New("cannot determine output format from filename")
	}
	res, err = conv.Encode(res, to)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(output, res.Data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write output file: %w", err)
	}
	return res, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]

	fmt.Printf("Converting %s -> %s\n", input, outputFile)
	var res *converter.ConversionResult
	var err error
	if metadataFile != "" {
		res, err = convertWithMetadata(input, outputFile)
	} else {
		res, err = conv.ConvertFile(input, outputFile)
	}
	if err != nil {
		return err
	}
	printWarnings(res)
	fmt.Println("Conversion complete!")
	return nil
}

// runTo converts the input to a fixed output format
func runTo(to converter.Format) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		input := args[0]
		output := getOutputPath(input, to.Extension())

		res, err := conv.ConvertFile(input, output)
		if err != nil {
			return err
		}

		printWarnings(res)
		fmt.Printf("Converted %s -> %s\n", input, output)
		return nil
	}
}

func runInspect(cmd *cobra.Command, args []string) error {
	input := args[0]
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	from := converter.DetectFormatFromContent(data)
	if from == converter.FormatUnknown {
		from = converter.DetectFormat(input)
	}

	if from == converter.FormatMIDI {
		sum, err := converter.NewMIDIConverter().ParseMIDI(data)
		if err != nil {
			return err
		}
		fmt.Printf("%s: MIDI, %d track(s), %d note(s), %d ticks per quarter, %.1f bpm\n",
			input, sum.Tracks, len(sum.Notes), sum.TicksPerQuarter, sum.Tempo)
		return nil
	}

	var res *converter.ConversionResult
	if from == converter.FormatEnigma && metadataFile != "" {
		res, err = convertWithMetadata(input, "")
	} else {
		res, err = conv.ToMusicXML(data, from)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%s: %s, %d part(s)\n", input, from, len(res.Parts))
	for _, p := range res.Parts {
		name := p.Name
		if p.Abbreviation != "" {
			name += " (" + p.Abbreviation + ")"
		}
		fmt.Printf("  %-4s %-30s %d staff(s)\n", p.ID, name, len(p.Staves))
	}
	printWarnings(res)
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run(conv)
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting API server on port %d...\n", cfg.Port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", cfg.Port)
	return api.StartServer(cfg.Port, logger)
}
