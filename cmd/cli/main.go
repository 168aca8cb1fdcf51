package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"redevdash/adapters/excel"
	"redevdash/adapters/postgres"
	"redevdash/app"
	"redevdash/domain/pipeline"
	"redevdash/internal"
	"redevdash/internal/config"
	"redevdash/internal/container"
	"redevdash/internal/migration"
	"redevdash/models"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	appConfig *config.Config
	logger    *internal.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "redevdash-cli",
		Short: "Redevelopment pipeline tools: summaries, imports, exports and migrations",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			appConfig = cfg
			logger = internal.NewLogger(internal.ParseLogLevel(cfg.Logging.Level), cfg.Logging.Format)
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newSummaryCmd(),
		newAnalyzeCmd(),
		newImportCmd(),
		newExportCmd(),
		newMigrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// criteriaFlags binds the dashboard filters to command flags
func criteriaFlags(cmd *cobra.Command, c *pipeline.Criteria) {
	cmd.Flags().StringVar(&c.Region, "region", "", "ISO/RTO to keep")
	cmd.Flags().StringVar(&c.Process, "process", "", "Process or Bilateral")
	cmd.Flags().StringVar(&c.Owner, "owner", "", "Plant owner to keep")
	cmd.Flags().StringVar(&c.Voltage, "voltage", "", "Keep projects with a point at this voltage")
	cmd.Flags().StringVar(&c.Excess, "excess", "", "yes or no for excess interconnection capacity")
	cmd.Flags().StringVar(&c.ProjectType, "project-type", "", "Redevelopment type to keep")
}

func sheetFile(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if appConfig.Data.ExcelFile != "" {
		return appConfig.Data.ExcelFile, nil
	}
	return "", fmt.Errorf("no workbook given: pass --file or set EXCEL_FILE")
}

func newSummaryCmd() *cobra.Command {
	var file, sheet string
	var asJSON bool
	var criteria pipeline.Criteria

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print KPIs and distributions for a workbook",
		Long: `Print the dashboard KPIs and the ISO, technology, redevelopment and
counterparty breakdowns for the filtered rows of a workbook.

Example: redevdash-cli summary --file pipeline.xlsx --region PJM --excess yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := sheetFile(file)
			if err != nil {
				return err
			}
			if sheet == "" {
				sheet = appConfig.Data.ExcelSheet
			}
			dashboard := app.NewDashboardService(excel.NewSource(path, sheet))
			view, err := dashboard.View(cmd.Context(), app.ViewRequest{Criteria: criteria})
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view.Summary)
			}
			return printSummary(cmd.OutOrStdout(), view)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Workbook path (defaults to EXCEL_FILE)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet name (defaults to EXCEL_SHEET or the first sheet)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the summary as JSON")
	criteriaFlags(cmd, &criteria)

	return cmd
}

func printSummary(out io.Writer, view pipeline.View) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Rows\t%d of %d\n", view.FilteredRows, view.TotalRows)
	for _, kpi := range view.Summary.KPIs {
		if kpi.Sub != "" {
			fmt.Fprintf(w, "%s\t%s\t%s\n", kpi.Label, kpi.Value, kpi.Sub)
		} else {
			fmt.Fprintf(w, "%s\t%s\n", kpi.Label, kpi.Value)
		}
	}

	sections := []struct {
		title   string
		entries []pipeline.DistributionEntry
	}{
		{"ISO (GW)", view.Summary.ISO},
		{"Technology (GW)", view.Summary.Tech},
		{"Redevelopment type (projects)", view.Summary.RedevTypes},
	}
	for _, section := range sections {
		fmt.Fprintf(w, "\n%s\n", section.title)
		for _, e := range section.entries {
			fmt.Fprintf(w, "  %s\t%s\t%d\n", e.Name, humanize.CommafWithDigits(e.Value, 2), e.Count)
		}
	}

	fmt.Fprintf(w, "\nCounterparties\n")
	for _, c := range view.Summary.Counterparties {
		fmt.Fprintf(w, "  %s\t%s\t%s GW\tavg %s\n", c.Name, c.ProjectsLabel(),
			humanize.CommafWithDigits(c.CapacityGW, 2), humanize.FtoaWithDigits(c.AvgOverall, 2))
	}
	return w.Flush()
}

func newAnalyzeCmd() *cobra.Command {
	var file, sheet string

	cmd := &cobra.Command{
		Use:   "analyze [row-key]",
		Short: "Print the scoring breakdown for one workbook row as markdown",
		Long: `Score one project and print the analysis report.

Example: redevdash-cli analyze row-12 --file pipeline.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := sheetFile(file)
			if err != nil {
				return err
			}
			if sheet == "" {
				sheet = appConfig.Data.ExcelSheet
			}
			dashboard := app.NewDashboardService(excel.NewSource(path, sheet))
			analysis, err := dashboard.Analysis(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), analysis.Markdown())
			return err
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Workbook path (defaults to EXCEL_FILE)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet name")

	return cmd
}

// withDatabase opens the database, runs migrations and hands a wired container to fn
func withDatabase(ctx context.Context, fn func(*container.Container) error) error {
	if err := appConfig.Validate(true); err != nil {
		return err
	}
	db, err := container.OpenDatabase(ctx, appConfig.Database)
	if err != nil {
		return err
	}
	c, err := container.New(appConfig, logger)
	if err != nil {
		db.Close()
		return err
	}
	defer c.Close()

	if err := c.InitWithDatabase(ctx, db, true); err != nil {
		return err
	}
	return fn(c)
}

func newImportCmd() *cobra.Command {
	var file, sheet, actor string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Upsert workbook rows into the projects table",
		Long: `Copy every named workbook row into the projects table. Rows are matched
on their spreadsheet position, so re-running an import updates in place.

Example: redevdash-cli import --file pipeline.xlsx --actor analyst`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := sheetFile(file)
			if err != nil {
				return err
			}
			if sheet == "" {
				sheet = appConfig.Data.ExcelSheet
			}
			batch, err := excel.NewSource(path, sheet).Load(cmd.Context())
			if err != nil {
				return err
			}

			return withDatabase(cmd.Context(), func(c *container.Container) error {
				result, err := c.Import.Import(cmd.Context(), batch, models.RequestMeta{Actor: actor})
				if result != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "created %d, updated %d, skipped %d\n", result.Created, result.Updated, result.Skipped)
					for _, msg := range result.Errors {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", msg)
					}
				}
				return err
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Workbook path (defaults to EXCEL_FILE)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet name")
	cmd.Flags().StringVar(&actor, "actor", "import", "Recorded as created_by/updated_by")

	return cmd
}

func newExportCmd() *cobra.Command {
	var file, sheet string
	var criteria pipeline.Criteria

	cmd := &cobra.Command{
		Use:   "export [output.xlsx]",
		Short: "Write the filtered pipeline and its summary to a workbook",
		Long: `Export the filtered pipeline view. Rows come from --file when given,
otherwise from the projects table.

Example: redevdash-cli export pjm.xlsx --region PJM`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			write := func(dashboard *app.DashboardService) error {
				view, err := dashboard.View(cmd.Context(), app.ViewRequest{Criteria: criteria})
				if err != nil {
					return err
				}
				out, err := os.Create(args[0])
				if err != nil {
					return err
				}
				if err := excel.NewExporter().WriteView(out, view); err != nil {
					out.Close()
					return err
				}
				if err := out.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows from %s to %s\n", len(view.Rows), dashboard.SourceName(), args[0])
				return nil
			}

			if file != "" {
				return write(app.NewDashboardService(excel.NewSource(file, sheet)))
			}
			return withDatabase(cmd.Context(), func(c *container.Container) error {
				return write(app.NewDashboardService(postgres.NewProjectRowSource(c.ProjectRepo)))
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Read rows from this workbook instead of the database")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet name")
	criteriaFlags(cmd, &criteria)

	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), func(c *container.Container) error {
				fmt.Fprintf(cmd.OutOrStdout(), "schema at version %s\n", migration.NewRunner().Version())
				return nil
			})
		},
	}
}
