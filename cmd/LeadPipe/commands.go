package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BTreeMap/LeadPipe/internal/api"
	"github.com/BTreeMap/LeadPipe/internal/config"
	"github.com/BTreeMap/LeadPipe/internal/discovery"
	"github.com/BTreeMap/LeadPipe/internal/email"
	"github.com/BTreeMap/LeadPipe/internal/enrich"
	"github.com/BTreeMap/LeadPipe/internal/fetch"
	"github.com/BTreeMap/LeadPipe/internal/lockfile"
	"github.com/BTreeMap/LeadPipe/internal/models"
	"github.com/BTreeMap/LeadPipe/internal/outreach"
	"github.com/BTreeMap/LeadPipe/internal/scheduler"
)

// socialDomains are search hits that never point at a company's own site.
var socialDomains = []string{"linkedin.com", "facebook.com", "instagram.com", "x.com", "twitter.com"}

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "leadpipe",
	Short: "LeadPipe lead generation and outreach automation",
	Long:  "Discovers companies via web search, enriches them with contact data, and drives a three-step email drip sequence.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		initializeLogger(cfg)
	},
}

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()
		fmt.Printf("DB initialized at %s\n", cfg.DBDSN)
		return nil
	},
}

var (
	scrapeLimit    int
	scrapeUseSeeds bool
	seedsFile      string
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Discover companies via web search (or seed CSV)",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		upserted := 0

		if !scrapeUseSeeds {
			client := fetch.NewClient(cfg.UserAgent, cfg.RequestDelay)
			searcher := discovery.NewSearcher(discovery.NewDuckDuckGoProvider(client), discovery.DefaultQueries)
			results, err := searcher.Search(ctx, scrapeLimit)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			for _, r := range results {
				domain := resultDomain(r.URL)
				if domain == "" {
					continue
				}
				name := r.Title
				if name == "" {
					name = domain
				}
				if _, err := s.UpsertCompany(models.Company{
					Name:    name,
					Website: "https://" + domain,
					Country: cfg.Country,
					Source:  "duckduckgo",
				}); err != nil {
					slog.Warn("scrape: company upsert failed", "domain", domain, "error", err)
					continue
				}
				upserted++
			}
		}

		// Seeds are both an explicit mode and the fallback for an empty search.
		if upserted == 0 || scrapeUseSeeds {
			seeds, err := discovery.LoadSeeds(seedsFile)
			if err != nil {
				slog.Warn("scrape: seeds unavailable", "path", seedsFile, "error", err)
			} else {
				for _, seed := range seeds {
					if _, err := s.UpsertCompany(seed.Company()); err != nil {
						slog.Warn("scrape: seed upsert failed", "website", seed.Website, "error", err)
						continue
					}
					upserted++
				}
			}
		}

		fmt.Printf("Scrape done. Upserted companies: %d\n", upserted)
		return nil
	},
}

var enrichLimit int

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich companies with contact data and create leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		client := fetch.NewClient(cfg.UserAgent, cfg.RequestDelay)
		enricher := enrich.NewWebsiteEnricher(client)

		companies, err := s.ListCompanies(enrichLimit)
		if err != nil {
			return fmt.Errorf("list companies failed: %w", err)
		}

		created := 0
		for _, c := range companies {
			info, err := enricher.Enrich(ctx, c.Website)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.Warn("enrich: company skipped", "website", c.Website, "error", err)
				continue
			}

			var contactID *int64
			if mainEmail := firstValidEmail(info.Emails); mainEmail != "" {
				phone := ""
				if len(info.Phones) > 0 {
					phone = info.Phones[0]
				}
				id, err := s.AddContact(models.Contact{
					CompanyID: c.ID,
					FullName:  "General Contact",
					Role:      "Info",
					Email:     mainEmail,
					Phone:     phone,
				})
				if err != nil {
					slog.Warn("enrich: contact insert failed", "companyID", c.ID, "error", err)
				} else {
					contactID = &id
				}
			}

			if _, err := s.AddLead(models.Lead{
				CompanyID: c.ID,
				ContactID: contactID,
				Status:    models.LeadStatusEnriched,
			}); err != nil {
				slog.Warn("enrich: lead insert failed", "companyID", c.ID, "error", err)
				continue
			}
			created++
		}

		fmt.Printf("Enrichment done. Leads created: %d\n", created)
		return nil
	},
}

var sequenceLimit int

var sequenceCmd = &cobra.Command{
	Use:   "sequence",
	Short: "Schedule the three-step email sequence for leads without one",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		created, err := outreach.NewScheduler(s).ScheduleBacklog(sequenceLimit, time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("Sequence scheduled for %d leads\n", created)
		return nil
	},
}

var sendDryRun bool

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Deliver due queued emails",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		engine := outreach.NewEngine(s, newTransport(cfg))
		sent, err := engine.SendDue(cmd.Context(), sendDryRun)
		if err != nil {
			return err
		}
		fmt.Printf("Emails sent: %d\n", sent)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard API and flush due emails on a schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		// The store is single-writer; refuse to run two instances over the
		// same state directory.
		lock, err := lockfile.AcquireLock(cfg.StateDir)
		if err != nil {
			return err
		}
		defer lock.Release()

		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		engine := outreach.NewEngine(s, newTransport(cfg))
		sched := scheduler.NewScheduler()
		defer sched.Stop()
		if err := sched.AddJob(cfg.SendSchedule, func() {
			sent, err := engine.SendDue(context.Background(), false)
			if err != nil {
				slog.Error("serve: scheduled send failed", "error", err)
				return
			}
			slog.Info("serve: scheduled send done", "sent", sent)
		}); err != nil {
			return fmt.Errorf("invalid SEND_SCHEDULE %q: %w", cfg.SendSchedule, err)
		}

		server := api.NewServer(cfg.APIAddr, s)
		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			slog.Info("serve: shutting down", "signal", sig.String())
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		}
	},
}

func init() {
	scrapeCmd.Flags().IntVar(&scrapeLimit, "limit", 30, "maximum companies to discover")
	scrapeCmd.Flags().BoolVar(&scrapeUseSeeds, "use-seeds", false, "load seed companies CSV instead of web search (or as fallback)")
	scrapeCmd.Flags().StringVar(&seedsFile, "seeds-file", "data/seeds_companies.csv", "path to the seed companies CSV")
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 50, "maximum companies to enrich")
	sequenceCmd.Flags().IntVar(&sequenceLimit, "limit", 50, "maximum leads to schedule")
	sendCmd.Flags().BoolVar(&sendDryRun, "dry-run", false, "mark due emails sent without contacting the SMTP relay")

	rootCmd.AddCommand(initDBCmd, scrapeCmd, enrichCmd, sequenceCmd, sendCmd, serveCmd)
}

func newTransport(cfg *config.Config) *email.SMTPTransport {
	return email.NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.FromName, cfg.FromEmail)
}

// resultDomain extracts the host of a search hit, dropping social networks
// and anything without a host.
func resultDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	for _, social := range socialDomains {
		if host == social || strings.HasSuffix(host, "."+social) {
			return ""
		}
	}
	return host
}

// firstValidEmail returns the first syntactically valid address, or "".
func firstValidEmail(emails []string) string {
	for _, e := range emails {
		if enrich.IsEmailValid(e) {
			return e
		}
	}
	return ""
}
