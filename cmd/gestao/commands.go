package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Malta2023/solucao-gestao/internal/config"
	"github.com/Malta2023/solucao-gestao/internal/export"
	"github.com/Malta2023/solucao-gestao/internal/importer"
	"github.com/Malta2023/solucao-gestao/internal/parse"
	"github.com/Malta2023/solucao-gestao/internal/pdftext"
	"github.com/Malta2023/solucao-gestao/internal/quote"
	"github.com/Malta2023/solucao-gestao/internal/records"
	"github.com/Malta2023/solucao-gestao/internal/storage"
)

// openEnv loads config and opens the store for a local command. The caller
// owns closing the store.
func openEnv() (config.Config, *storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("opening storage: %w", err)
	}
	return cfg, store, nil
}

func newImporter(cfg config.Config, store *storage.Store) *importer.Importer {
	return importer.New(store, pdftext.LedongthucExtractor{}, quote.NewParser(cfg.Parser.Denylist...))
}

func displayDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}

// --- importar ---

var importarCmd = &cobra.Command{
	Use:   "importar <arquivo.pdf> [arquivo.pdf...]",
	Short: "Import orçamento/recibo PDFs into the tables",
	Long: `Import one or more PDF files. Each recognized document upserts the
client and appends an obra with status "Orçamento Enviado". Files that
cannot be read or recognized are reported and skipped; the tables are
never touched by a failed file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, err := openEnv()
		if err != nil {
			return err
		}
		defer store.Close()

		imp := newImporter(cfg, store)

		failed := 0
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				printError("%s: %v", path, err)
				failed++
				continue
			}

			res, err := imp.ImportPDF(data, filepath.Base(path))
			switch {
			case importer.IsUnreadable(err):
				printError("%s: could not read file", path)
				failed++
				continue
			case importer.IsNotRecognized(err):
				printError("%s: document not recognized (%v)", path, err)
				failed++
				continue
			case err != nil:
				return err
			}

			printSuccess("%s: %s (cliente %d, obra %d) %s",
				path, res.Quote.ClientName, res.ClientID, res.JobID,
				parse.FormatCurrency(res.Quote.Total))
			if res.Quote.TotalConfidence == quote.TotalFromScan {
				printWarning("%s: total taken from the largest amount on the page, review it", path)
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(args))
		}
		return nil
	},
}

// --- clientes ---

var clientesCmd = &cobra.Command{
	Use:   "clientes",
	Short: "List the client table",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := openEnv()
		if err != nil {
			return err
		}
		defer store.Close()

		clients, err := store.LoadClients()
		if err != nil {
			return err
		}
		if len(clients) == 0 {
			fmt.Println("No clients yet.")
			return nil
		}

		for _, c := range clients {
			line := fmt.Sprintf("%4d  %s", c.ID, colorize(colorBold, c.Name))
			if c.Phone != "" {
				line += "  " + c.Phone
			}
			fmt.Println(line)
		}
		return nil
	},
}

// --- obras ---

var obrasCmd = &cobra.Command{
	Use:   "obras",
	Short: "List the obra table",
	RunE: func(cmd *cobra.Command, args []string) error {
		clientFilter, _ := cmd.Flags().GetString("cliente")

		_, store, err := openEnv()
		if err != nil {
			return err
		}
		defer store.Close()

		jobs, err := store.LoadJobs()
		if err != nil {
			return err
		}
		jobs = records.Repair(jobs)

		shown := 0
		for _, j := range jobs {
			if clientFilter != "" && !records.SameName(j.ClientName, clientFilter) {
				continue
			}
			shown++
			fmt.Printf("%4d  %-25s %-22s %s  %s\n",
				j.ID, j.ClientName, string(j.Status),
				displayDate(j.QuoteDate), parse.FormatCurrency(j.Total))
			if j.Description != "" {
				fmt.Printf("      %s\n", j.Description)
			}
		}
		if shown == 0 {
			fmt.Println("No obras found.")
		}
		return nil
	},
}

func init() {
	obrasCmd.Flags().String("cliente", "", "only show obras for this client")
}

// --- reparar ---

var repararCmd = &cobra.Command{
	Use:   "reparar",
	Short: "Run the repair pass over the obra table",
	Long: `Repair the persisted obra table: drop rows without a client, assign
missing ids, and collapse duplicate rows. Listing commands always show
the repaired view; this command persists it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, err := openEnv()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := newImporter(cfg, store).RepairAll()
		if err != nil {
			return err
		}
		printSuccess("Obra table repaired, %d rows", n)
		return nil
	},
}

// --- exportar ---

var exportarCmd = &cobra.Command{
	Use:   "exportar <arquivo.xlsx>",
	Short: "Export clients and obras to an XLSX workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := openEnv()
		if err != nil {
			return err
		}
		defer store.Close()

		clients, err := store.LoadClients()
		if err != nil {
			return err
		}
		jobs, err := store.LoadJobs()
		if err != nil {
			return err
		}

		data, err := export.Workbook(clients, records.Repair(jobs), nil)
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[0], data, 0o644); err != nil {
			return fmt.Errorf("writing workbook: %w", err)
		}
		printSuccess("Exported %d clients and %d obras to %s", len(clients), len(jobs), args[0])
		return nil
	},
}

// --- importacoes ---

var importacoesCmd = &cobra.Command{
	Use:   "importacoes",
	Short: "Show recent import attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		_, store, err := openEnv()
		if err != nil {
			return err
		}
		defer store.Close()

		imports, err := store.ListImports(limit)
		if err != nil {
			return err
		}
		if len(imports) == 0 {
			fmt.Println("No imports yet.")
			return nil
		}

		for _, rec := range imports {
			status := rec.Status
			switch rec.Status {
			case storage.ImportStatusOK:
				status = colorize(colorGreen, rec.Status)
			case storage.ImportStatusRejected, storage.ImportStatusUnreadable:
				status = colorize(colorRed, rec.Status)
			}
			line := fmt.Sprintf("%s  %-10s  %s",
				rec.CreatedAt.Local().Format("02/01/2006 15:04"), status, rec.Filename)
			if rec.Error != "" {
				line += "  (" + rec.Error + ")"
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	importacoesCmd.Flags().Int("limit", 20, "maximum number of imports to list")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
