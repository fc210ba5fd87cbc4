// cmd/tools/tafctl/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/pflag"

	"taf-intake/internal/common/config"
	"taf-intake/internal/common/database"
	"taf-intake/internal/common/logger"
	"taf-intake/internal/intake/blacklist"
	"taf-intake/internal/intake/certificate"
	"taf-intake/internal/intake/criteria"
	"taf-intake/internal/intake/listing"
	"taf-intake/internal/models"
	"taf-intake/internal/store"
)

const commandTimeout = 30 * time.Second

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = runList(os.Args[2:])
	case "show":
		err = runShow(os.Args[2:])
	case "certificate":
		err = runCertificate(os.Args[2:])
	case "evaluate":
		err = runEvaluate(os.Args[2:])
	case "check-blacklist":
		err = runCheckBlacklist(os.Args[2:])
	case "migrate":
		err = runMigrate(os.Args[2:])
	case "help", "-h", "--help":
		help()
		return
	default:
		color.Red("Unknown command: %s", os.Args[1])
		help()
		os.Exit(1)
	}

	if err != nil && err != pflag.ErrHelp {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func help() {
	fmt.Println(`tafctl - TAF intake administration

Usage:
  tafctl list [--status approved|rejected] [--q text]
  tafctl show <id>
  tafctl certificate <id> [--out dir]
  tafctl evaluate --pass key[,key...]
  tafctl check-blacklist <passportId>
  tafctl migrate

Every command accepts --config <file>; without it configs/config.yaml is used.`)
}

func newFlagSet(name string) (*pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	path := fs.String("config", "", "path to config file")
	return fs, path
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// openStore connects to Postgres. The caller closes the client.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, *database.PostgresClient, error) {
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Ping(ctx); err != nil {
		pg.Close()
		return nil, nil, fmt.Errorf("postgres unreachable: %w", err)
	}
	return store.NewPostgresStore(pg.GetDB(), logger.NewNoOpLogger()), pg, nil
}

// ==========================
// list / show / certificate
// ==========================

func runList(args []string) error {
	fs, cfgPath := newFlagSet("list")
	status := fs.String("status", "", "approved, rejected or all")
	query := fs.String("q", "", "search name, passport or recruiter")
	if err := fs.Parse(args); err != nil {
		return err
	}

	approval, err := listing.ParseApproval(*status)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	st, pg, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pg.Close()

	records, err := st.ListAll(ctx)
	if err != nil {
		return err
	}
	records = listing.Filter(records, listing.Query{Approval: approval, Search: *query})

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Candidato", "Passaporte", "Recrutador", "Data", "Perguntas", "Exercícios", "Resultado"})
	for _, rec := range records {
		table.Append([]string{
			rec.ID,
			rec.CandidateName,
			rec.PassportID,
			rec.RecruiterName,
			rec.Date.Format("02/01/2006"),
			fmt.Sprintf("%d", rec.Status.QuestionsCorrect),
			fmt.Sprintf("%d", rec.Status.ExercisesCorrect),
			verdict(rec.Status.Approved),
		})
	}
	table.Render()

	summary := listing.Summarize(records)
	color.Cyan("%d TAF(s): %d aprovado(s), %d reprovado(s)", summary.Total, summary.Approved, summary.Rejected)
	return nil
}

func runShow(args []string) error {
	fs, cfgPath := newFlagSet("show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("show requires exactly one record id")
	}

	rec, err := fetch(*cfgPath, fs.Arg(0))
	if err != nil {
		return err
	}

	color.Yellow("\nTAF %s", rec.ID)
	fmt.Printf("Candidato:   %s\n", rec.CandidateName)
	fmt.Printf("Passaporte:  %s\n", rec.PassportID)
	fmt.Printf("Recrutador:  %s\n", rec.RecruiterName)
	fmt.Printf("Auxiliar:    %s\n", rec.AssistantName())
	fmt.Printf("Data:        %s\n", rec.Date.Format("02/01/2006"))
	fmt.Printf("Registrado:  %s\n", rec.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Resultado:   %s (%d/%d)\n", verdict(rec.Status.Approved), rec.Status.TotalCorrect, rec.Status.TotalCriteria)

	printChecks("Critérios", rec.Criteria)
	if len(rec.PostRecruitment) > 0 {
		printChecks("Pós-recrutamento", rec.PostRecruitment)
	}
	return nil
}

func runCertificate(args []string) error {
	fs, cfgPath := newFlagSet("certificate")
	outDir := fs.String("out", ".", "directory to write the certificate to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("certificate requires exactly one record id")
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	rec, err := fetchWith(cfg, fs.Arg(0))
	if err != nil {
		return err
	}

	page, err := certificate.Render(certificate.NewView(rec, certificate.Options{
		Department:      cfg.Certificate.Department,
		LegacyFiveScale: cfg.Certificate.LegacyFiveScale,
	}))
	if err != nil {
		return err
	}

	path := filepath.Join(*outDir, certificate.Filename(rec))
	if err := os.WriteFile(path, page, 0o644); err != nil {
		return fmt.Errorf("failed to write certificate: %w", err)
	}
	color.Green("Certificate written to %s", path)
	return nil
}

func fetch(cfgPath, id string) (*models.CandidateRecord, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	return fetchWith(cfg, id)
}

func fetchWith(cfg *config.Config, id string) (*models.CandidateRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	st, pg, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer pg.Close()

	return st.Get(ctx, id)
}

// ==========================
// evaluate / check-blacklist
// ==========================

func runEvaluate(args []string) error {
	fs := pflag.NewFlagSet("evaluate", pflag.ContinueOnError)
	pass := fs.StringSlice("pass", nil, "criterion keys that were completed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	set := criteria.Set{}
	for _, k := range *pass {
		set[criteria.Key(strings.TrimSpace(k))] = true
	}
	if err := set.Validate(); err != nil {
		return err
	}

	result := criteria.Evaluate(set)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Chave", "Critério", "Grupo", "Concluído"})
	for _, c := range criteria.Catalog {
		table.Append([]string{string(c.Key), c.Label, c.Group.String(), mark(set[c.Key])})
	}
	table.Render()

	fmt.Printf("Perguntas: %d/%d  Exercícios: %d/%d  Total: %d/%d\n",
		result.QuestionsCompleted, criteria.GroupSize(criteria.QuestionGroup),
		result.ExercisesCompleted, criteria.GroupSize(criteria.ExerciseGroup),
		result.TotalCompleted, criteria.TotalCriteria,
	)
	fmt.Println(verdict(result.Approved))
	return nil
}

func runCheckBlacklist(args []string) error {
	fs, cfgPath := newFlagSet("check-blacklist")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || strings.TrimSpace(fs.Arg(0)) == "" {
		return fmt.Errorf("check-blacklist requires a passport id")
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	gate, err := blacklist.FromConfig(cfg.Blacklist.IDs, cfg.Blacklist.Path)
	if err != nil {
		return err
	}

	if gate.IsBlacklisted(fs.Arg(0)) {
		color.Red("ESTA PESSOA ESTA NA BLACKLIST - NAO PODE SER RECRUTADA!")
		return nil
	}
	color.Green("ESTA PESSOA NAO ESTA NA BLACKLIST")
	return nil
}

// ==========================
// migrate
// ==========================

func runMigrate(args []string) error {
	fs, cfgPath := newFlagSet("migrate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := store.NewPostgresStore(pg.GetDB(), logger.NewNoOpLogger()).EnsureSchema(ctx); err != nil {
		return err
	}
	color.Green("Schema is up to date")
	return nil
}

// ==========================
// Output helpers
// ==========================

func verdict(approved bool) string {
	if approved {
		return color.GreenString("APROVADO")
	}
	return color.RedString("REPROVADO")
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func printChecks(title string, checks models.LabeledChecks) {
	color.Yellow("\n%s", title)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Item", "Concluído"})
	for _, c := range checks {
		table.Append([]string{c.Label, mark(c.Value)})
	}
	table.Render()
}
