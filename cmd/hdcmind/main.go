// Command hdcmind is the CLI for the hdcmind reasoning engine: learn
// theories, run hole queries, prove goals, inspect reasoning stats, and
// dump a session snapshot to SQLite.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"hdcmind/internal/config"
	"hdcmind/internal/prove"
	"hdcmind/internal/query"
	"hdcmind/internal/session"
)

const version = "1.0.0"

var (
	verbose    bool
	configPath string
	timeout    time.Duration

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "hdcmind",
	Short: "hdcmind - symbolic reasoning over binary hyperdimensional vectors",
	Long: `hdcmind learns facts and rules written in a small S-expression-like
surface syntax into a holographic knowledge base, then answers hole
queries and proves ground goals by backward chaining.

Run without arguments to start the interactive REPL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()
		return runREPL(s)
	},
}

func newSession() (*session.Session, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, err
		}
	}
	return session.New(cfg, logger)
}

func proveOptions() *session.ProveOptions {
	if timeout <= 0 {
		return nil
	}
	return &session.ProveOptions{Timeout: timeout}
}

var learnCmd = &cobra.Command{
	Use:   "learn <file> [file...]",
	Short: "Learn one or more theory files into a fresh session, then report",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			res := s.Learn(string(data))
			printLearn(path, res)
			if !res.Success {
				return fmt.Errorf("%s: learn failed", path)
			}
		}
		printStats(s.GetReasoningStats(false), s.KB.Len())
		return nil
	},
}

var proveCmd = &cobra.Command{
	Use:   "prove <theory-file> <goal...>",
	Short: "Learn a theory file, then prove the goal statement",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		if res := s.Learn(string(data)); !res.Success {
			printLearn(args[0], res)
			return fmt.Errorf("%s: learn failed", args[0])
		}

		res, err := s.Prove(strings.Join(args[1:], " "), proveOptions())
		if err != nil {
			return err
		}
		printProof(s, res)
		return nil
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <theory-file> <statement...>",
	Short: "Learn a theory file, then run a hole query against it",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		if res := s.Learn(string(data)); !res.Success {
			printLearn(args[0], res)
			return fmt.Errorf("%s: learn failed", args[0])
		}

		res, err := s.Query(strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		printQuery(res)
		return nil
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump <theory-file> <sqlite-path>",
	Short: "Learn a theory file and export the session snapshot to SQLite",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		if res := s.Learn(string(data)); !res.Success {
			printLearn(args[0], res)
			return fmt.Errorf("%s: learn failed", args[0])
		}
		if err := s.Dump(context.Background(), args[1]); err != nil {
			return err
		}
		fmt.Printf("dumped %s facts to %s\n", humanize.Comma(int64(s.KB.Len())), args[1])
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the hdcmind version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hdcmind v%s\n", version)
	},
}

// runREPL reads lines from stdin and dispatches by prefix: "?" runs a
// query, "!" proves a goal, ":stats" / ":warnings" / ":quit" are meta
// commands, everything else is learned.
func runREPL(s *session.Session) error {
	fmt.Printf("hdcmind v%s (D=%d). Lines learn; ?-prefix queries; !-prefix proves; :quit exits.\n", version, s.D)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == ":quit" || line == ":q":
			return nil
		case line == ":stats":
			printStats(s.GetReasoningStats(false), s.KB.Len())
		case line == ":warnings":
			for _, w := range s.Warnings() {
				fmt.Println(w)
			}
		case strings.HasPrefix(line, "?"):
			res, err := s.Query(strings.TrimSpace(line[1:]))
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			printQuery(res)
		case strings.HasPrefix(line, "!"):
			res, err := s.Prove(strings.TrimSpace(line[1:]), proveOptions())
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			printProof(s, res)
		default:
			res := s.Learn(line)
			printLearn("", res)
		}
	}
	return scanner.Err()
}

func printLearn(path string, res session.LearnResult) {
	prefix := ""
	if path != "" {
		prefix = path + ": "
	}
	fmt.Printf("%slearned %d fact(s)\n", prefix, res.Facts)
	for _, w := range res.Warnings {
		fmt.Println(" ", w)
	}
	for _, e := range res.Errors {
		fmt.Println("  error:", e)
	}
}

func printQuery(res query.Result) {
	if !res.Success {
		fmt.Println("no answer:", res.Reason)
		return
	}
	for name, b := range res.Bindings {
		answer := "(none)"
		if b.Answer != nil {
			answer = *b.Answer
		}
		fmt.Printf("?%s = %s (%.3f)\n", name, answer, b.Similarity)
		for _, alt := range b.Alternatives {
			fmt.Printf("      or %s (%.3f)\n", alt.Value, alt.Similarity)
		}
	}
	fmt.Printf("confidence %.3f", res.Confidence)
	if res.Ambiguous {
		fmt.Print(" (ambiguous)")
	}
	fmt.Println()
}

func printProof(s *session.Session, res prove.Result) {
	if !res.Valid {
		fmt.Println("not proved:", res.Reason)
		return
	}
	verdict := "proved"
	if res.ResultValue != nil && !*res.ResultValue {
		verdict = "refuted"
	}
	fmt.Printf("%s via %s (confidence %.3f)\n", verdict, res.Method, res.Confidence)
	for k, v := range res.Bindings {
		fmt.Printf("  ?%s = %s\n", k, v)
	}
	fmt.Println(" ", s.Elaborate(res.Steps))
}

func printStats(st session.StatsSnapshot, facts int) {
	fmt.Printf("facts %s | queries %d | proofs %d | similarity checks %s | transitive steps %d | deepest proof %d | avg proof length %.1f\n",
		humanize.Comma(int64(facts)), st.Queries, st.Proofs,
		humanize.Comma(int64(st.SimilarityChecks)), st.TransitiveSteps,
		st.DeepestProof, st.AvgProofLength)
	for method, n := range st.MethodHistogram {
		fmt.Printf("  %s: %d\n", method, n)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (dimension, bounds, thresholds)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Proof timeout override (e.g. 500ms)")

	rootCmd.AddCommand(learnCmd, queryCmd, proveCmd, dumpCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
