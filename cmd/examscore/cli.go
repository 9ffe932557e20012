package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ehr/examscore/internal/domain/exam"
	"github.com/ehr/examscore/internal/platform/db"
	"github.com/ehr/examscore/internal/report"
	"github.com/ehr/examscore/internal/scoring"
)

// Cohort is the batch input file: a list of exams evaluated independently.
type Cohort struct {
	Exams []exam.Exam `json:"exams" yaml:"exams"`
}

func calcCmd() *cobra.Command {
	var file, policy string
	cmd := &cobra.Command{
		Use:   "calc <kind>",
		Short: "Evaluate one score from a YAML or JSON input file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := calculatorFor(policy)
			if err != nil {
				return err
			}
			input, err := scoring.NewInput(scoring.Kind(args[0]))
			if err != nil {
				return err
			}
			if err := decodeFile(file, cmd.InOrStdin(), input); err != nil {
				return err
			}
			outcome, err := calc.Assess(input)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), outcome)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "input file (.yaml, .yml or .json); - reads YAML from stdin")
	cmd.Flags().StringVar(&policy, "policy", string(scoring.PolicyStrict), "missing input policy (strict or fast-entry)")
	return cmd
}

func batchCmd() *cobra.Command {
	var file, out, policy string
	var printReports bool
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Evaluate a cohort of exams and export the scores to an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" || out == "" {
				return errors.New("--file and --out are required")
			}
			calc, err := calculatorFor(policy)
			if err != nil {
				return err
			}
			var cohort Cohort
			if err := decodeFile(file, cmd.InOrStdin(), &cohort); err != nil {
				return err
			}

			logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
			svc := exam.NewService(calc, nil, nil)
			rows, evaluated := evaluateCohort(cmd.Context(), svc, cohort, logger, func(ev *exam.Evaluation) {
				if printReports {
					fmt.Fprintln(cmd.OutOrStdout(), ev.Report)
				}
			})

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := report.WriteWorkbook(f, rows); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Evaluated %d of %d exam(s), wrote %d score row(s) to %s\n",
				evaluated, len(cohort.Exams), len(rows), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "cohort file (.yaml, .yml or .json)")
	cmd.Flags().StringVarP(&out, "out", "o", "scores.xlsx", "output workbook")
	cmd.Flags().StringVar(&policy, "policy", string(scoring.PolicyStrict), "missing input policy (strict or fast-entry)")
	cmd.Flags().BoolVar(&printReports, "reports", false, "print the text report of every exam")
	return cmd
}

// evaluateCohort evaluates every exam in order. Invalid exams are logged and
// skipped so one bad record does not sink the export.
func evaluateCohort(ctx context.Context, svc *exam.Service, cohort Cohort, logger zerolog.Logger, each func(*exam.Evaluation)) ([]report.Row, int) {
	if ctx == nil {
		ctx = context.Background()
	}
	var rows []report.Row
	evaluated := 0
	for i, x := range cohort.Exams {
		ev, err := svc.Evaluate(ctx, x)
		if err != nil {
			logger.Warn().Err(err).Int("index", i).Str("patient_id", x.PatientID).Msg("skipping exam")
			continue
		}
		evaluated++
		rows = append(rows, ev.Rows()...)
		if each != nil {
			each(ev)
		}
	}
	return rows, evaluated
}

func scoresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scores",
		Short: "List the supported scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			printCatalog(cmd.OutOrStdout(), scoring.Catalog())
			return nil
		},
	}
}

func printCatalog(w io.Writer, defs []scoring.Definition) {
	fmt.Fprintf(w, "%-14s %-28s %-14s %-8s %s\n", "KIND", "TITLE", "SPECIALTY", "RANGE", "UNIT")
	for _, d := range defs {
		fmt.Fprintf(w, "%-14s %-28s %-14s %-8s %s\n", d.Kind, d.Title, d.Specialty, d.Range, d.Unit)
	}
}

func printMigrationStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func calculatorFor(policy string) (scoring.Calculator, error) {
	p, err := scoring.ParsePolicy(policy)
	if err != nil {
		return scoring.Calculator{}, err
	}
	return scoring.NewCalculator(p), nil
}

// decodeFile reads path (or stdin for "-") into v. Files ending in .json are
// decoded as JSON, everything else as YAML. Unknown fields are rejected in
// both formats.
func decodeFile(path string, stdin io.Reader, v any) error {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
