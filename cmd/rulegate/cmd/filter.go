package cmd

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/solatis/rulegate/internal/core/config"
	"github.com/solatis/rulegate/internal/rules"
	"github.com/solatis/rulegate/internal/schema"
	"github.com/solatis/rulegate/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter a stream of JSON records through one rule",
	Long: `Filter reads newline-delimited JSON records from a file or stdin,
evaluates each against a rule, and writes matching records to stdout.

The rule comes from --rule (inline text), --rule-file (a file holding the
rule text), or --rule-name (the rule catalog, requires --db-url).`,
	RunE: runFilter,
}

func init() {
	rootCmd.AddCommand(filterCmd)
	filterCmd.Flags().String("schema", "", "schema file describing the records (required)")
	filterCmd.Flags().String("rule", "", "rule text to evaluate")
	filterCmd.Flags().String("rule-file", "", "file containing the rule text")
	filterCmd.Flags().String("rule-name", "", "name of a stored rule")
	filterCmd.Flags().String("dataset", "", "dataset of the stored rule")
	filterCmd.Flags().String("input", "-", "input file, - for stdin")
	filterCmd.Flags().Bool("trace", false, "log compilation and evaluation steps")
	filterCmd.Flags().Bool("follow", false, "reload the rule file when it changes (requires --rule-file)")
	filterCmd.Flags().String("metrics-addr", "", "address to serve Prometheus metrics on")
	filterCmd.Flags().Int("max-record-size", 0, "maximum record size in bytes")
	filterCmd.Flags().String("on-error", "", "policy for records that fail evaluation: drop, keep, fail")
}

func runFilter(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFilterConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFilterFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.SchemaPath == "" {
		return fmt.Errorf("--schema required")
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	sch, err := schema.LoadYAML(cfg.SchemaPath)
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}

	ruleFile, _ := cmd.Flags().GetString("rule-file")
	ruleText, err := resolveRule(cmd, ruleFile)
	if err != nil {
		return err
	}

	follow, _ := cmd.Flags().GetBool("follow")
	if follow && ruleFile == "" {
		return fmt.Errorf("--follow requires --rule-file")
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics listener failed", zap.Error(err))
			}
		}()
	}

	// Rule reloads arrive over a channel so the evaluation loop stays
	// single-goroutine; the plan cache is not safe for concurrent use.
	var reloads <-chan string
	if follow {
		ch, closeWatcher, err := watchRuleFile(ruleFile, logger)
		if err != nil {
			return err
		}
		defer closeWatcher()
		reloads = ch
	}

	var input io.Reader = os.Stdin
	if inputPath, _ := cmd.Flags().GetString("input"); inputPath != "-" {
		f, err := os.Open(inputPath)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		input = f
	}

	return filterStream(input, os.Stdout, sch, ruleText, cfg, logger, reloads)
}

// applyFilterFlags layers explicit flags over the loaded config,
// matching the flags > environment > file > defaults precedence.
func applyFilterFlags(cmd *cobra.Command, cfg *config.FilterConfig) {
	if cmd.Flags().Changed("schema") {
		cfg.SchemaPath, _ = cmd.Flags().GetString("schema")
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")
	}
	if cmd.Flags().Changed("max-record-size") {
		cfg.MaxRecordSize, _ = cmd.Flags().GetInt("max-record-size")
	}
	if cmd.Flags().Changed("on-error") {
		cfg.OnError, _ = cmd.Flags().GetString("on-error")
	}
	if cmd.Flags().Changed("trace") {
		cfg.TraceRules, _ = cmd.Flags().GetBool("trace")
	}
}

// resolveRule returns the rule text from whichever source flag was given.
// Exactly one of --rule, --rule-file, --rule-name must be set.
func resolveRule(cmd *cobra.Command, ruleFile string) (string, error) {
	ruleText, _ := cmd.Flags().GetString("rule")
	ruleName, _ := cmd.Flags().GetString("rule-name")

	sources := 0
	for _, s := range []string{ruleText, ruleFile, ruleName} {
		if s != "" {
			sources++
		}
	}
	if sources != 1 {
		return "", fmt.Errorf("exactly one of --rule, --rule-file, --rule-name required")
	}

	switch {
	case ruleText != "":
		return ruleText, nil
	case ruleFile != "":
		return readRuleFile(ruleFile)
	default:
		s, closeDB, err := openStore()
		if err != nil {
			return "", err
		}
		defer closeDB()
		dataset, _ := cmd.Flags().GetString("dataset")
		r, err := s.GetByName(dataset, ruleName)
		if err != nil {
			return "", err
		}
		return r.Expression, nil
	}
}

// readRuleFile loads rule text from disk. A trailing newline is an
// artifact of the editor, not part of the rule.
func readRuleFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read rule file: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// watchRuleFile emits the new rule text whenever the file is rewritten.
// Unreadable intermediate states (editors often truncate before writing)
// are logged and skipped.
func watchRuleFile(path string, logger *zap.Logger) (<-chan string, func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, nil, fmt.Errorf("failed to watch rule file: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				text, err := readRuleFile(path)
				if err != nil || text == "" {
					logger.Warn("rule file unreadable after change, keeping current rule",
						zap.String("path", path), zap.Error(err))
					continue
				}
				// Keep only the latest pending reload.
				select {
				case <-ch:
				default:
				}
				ch <- text
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("rule file watch error", zap.Error(err))
			}
		}
	}()

	return ch, func() { watcher.Close() }, nil
}

// filterStream runs the evaluation loop: one record per input line,
// matching lines copied to the output verbatim.
func filterStream(input io.Reader, output io.Writer, sch *schema.Schema, ruleText string, cfg *config.FilterConfig, logger *zap.Logger, reloads <-chan string) error {
	engine := rules.NewEngine(rules.NewCache(), logger)

	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 64*1024), cfg.MaxRecordSize)

	out := bufio.NewWriter(output)
	defer out.Flush()

	line := 0
	for scanner.Scan() {
		line++

		if reloads != nil {
			select {
			case next := <-reloads:
				// A fresh cache per reload; plans are immutable once
				// compiled, so the old cache is simply abandoned.
				engine = rules.NewEngine(rules.NewCache(), logger)
				ruleText = next
				logger.Info("rule reloaded", zap.Int("line", line))
			default:
			}
		}

		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		rec, err := schema.RecordFromJSON(sch, raw)
		if err != nil {
			keep, ferr := failedRecord(cfg, logger, line, types.CodeOf(err).String(), err)
			if ferr != nil {
				return ferr
			}
			if keep {
				writeLine(out, raw)
			}
			continue
		}

		matched, code := engine.Evaluate(ruleText, rec, cfg.TraceRules)
		if code != types.CodeAllClear {
			keep, ferr := failedRecord(cfg, logger, line, code.String(), nil)
			if ferr != nil {
				return ferr
			}
			if keep {
				writeLine(out, raw)
			}
			continue
		}

		if matched {
			writeLine(out, raw)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("input read failed at line %d: %w", line, err)
	}

	return out.Flush()
}

// failedRecord applies the on-error policy to one failed record.
// It reports whether the record should still be emitted.
func failedRecord(cfg *config.FilterConfig, logger *zap.Logger, line int, code string, err error) (bool, error) {
	switch cfg.OnError {
	case config.OnErrorFail:
		if err != nil {
			return false, fmt.Errorf("record %d failed (%s): %w", line, code, err)
		}
		return false, fmt.Errorf("record %d failed (%s)", line, code)
	case config.OnErrorKeep:
		logger.Warn("record failed, kept", zap.Int("line", line), zap.String("code", code), zap.Error(err))
		return true, nil
	default:
		logger.Warn("record failed, dropped", zap.Int("line", line), zap.String("code", code), zap.Error(err))
		return false, nil
	}
}

func writeLine(out *bufio.Writer, raw []byte) {
	out.Write(raw)
	out.WriteByte('\n')
}
