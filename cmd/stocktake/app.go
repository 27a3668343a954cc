package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bookway/stocktake/internal/config"
	"github.com/bookway/stocktake/internal/domain/models"
	"github.com/bookway/stocktake/internal/repository/sheets"
	"github.com/bookway/stocktake/internal/service/counting"
	"github.com/bookway/stocktake/internal/service/syncer"
	"github.com/bookway/stocktake/internal/session"
	"github.com/bookway/stocktake/internal/session/mongodb"
	"github.com/bookway/stocktake/internal/session/relay"
	"github.com/bookway/stocktake/internal/session/sqlite"
	"github.com/bookway/stocktake/internal/spreadsheet"
	"github.com/bookway/stocktake/pkg/logger"
)

type mappingFlags struct {
	codeCol     int
	descCol     int
	stockCol    int
	stockColSet bool
}

type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  session.Store
	sync   *syncer.Client
	svc    *counting.Service
}

func newApp(envFile string) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	// Warnings and errors only; info-level logs would interleave with the
	// scan prompt.
	baseLogger := logger.Must(logger.NewQuiet())
	zap.ReplaceGlobals(baseLogger)

	store, err := newStore(cfg, baseLogger)
	if err != nil {
		return nil, err
	}

	syncClient := syncer.New(store, baseLogger.Named("syncer"))
	svc := counting.NewService(syncClient, baseLogger.Named("svc.counting"))
	svc.OnRemoteUpdate(func(products []models.ProductRecord) {
		fmt.Printf("\n[sync] lista actualizată de pe alt dispozitiv (%d produse)\nscan> ", len(products))
	})

	return &app{
		cfg:    cfg,
		logger: baseLogger,
		store:  store,
		sync:   syncClient,
		svc:    svc,
	}, nil
}

func newStore(cfg *config.Config, baseLogger *zap.Logger) (session.Store, error) {
	switch cfg.Sync.Backend {
	case config.BackendRelay:
		return relay.NewStore(cfg.Sync.RelayURL, baseLogger.Named("session.relay")), nil

	case config.BackendMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return mongodb.NewStore(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("session.mongodb"))

	case config.BackendLocal:
		store, err := sqlite.Open(cfg.Local.DBPath)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		maxAge := time.Duration(cfg.Cleanup.MaxAgeHours) * time.Hour
		if _, err := store.CleanupExpired(ctx, maxAge); err != nil {
			baseLogger.Warn("startup session cleanup failed", zap.Error(err))
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown sync backend %q", cfg.Sync.Backend)
	}
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.sync.Close(ctx); err != nil {
		a.logger.Warn("failed to close sync client", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func (a *app) runCount(ctx context.Context, file, sheetRange string, flags mappingFlags) error {
	rows, name, err := a.loadRows(ctx, file, sheetRange)
	if err != nil {
		return err
	}

	if err := a.svc.LoadRows(rows, name); err != nil {
		return err
	}

	mapping := a.svc.GuessMapping()
	mapping.CodeIndex = flags.codeCol
	mapping.DescIndex = flags.descCol
	if flags.stockColSet {
		mapping.StockIndex = flags.stockCol
	}

	id, err := a.svc.StartSession(ctx, mapping)
	if err != nil {
		return err
	}

	fmt.Printf("Sesiune creată: %s\n", id)
	if a.cfg.Sync.Backend == config.BackendRelay {
		fmt.Printf("Link de partajare: %s\n", session.ShareURL(a.cfg.Sync.RelayURL, id))
	}

	return a.scanLoop(ctx)
}

func (a *app) runJoin(ctx context.Context, sessionID string) error {
	if err := a.svc.JoinSession(ctx, sessionID); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return fmt.Errorf("session %s not found or expired", sessionID)
		}
		return err
	}

	stats := a.svc.Stats()
	fmt.Printf("Sesiune %s preluată: %d produse\n", sessionID, stats.TotalItems)
	return a.scanLoop(ctx)
}

func (a *app) loadRows(ctx context.Context, file, sheetRange string) ([][]string, string, error) {
	switch {
	case file != "":
		rows, err := spreadsheet.ReadWorkbook(file)
		if err != nil {
			return nil, "", err
		}
		return rows, file, nil

	case sheetRange != "":
		source, err := sheets.NewGoogleSheetSource(ctx, a.cfg.Sheets, a.logger.Named("repo.sheets"))
		if err != nil {
			return nil, "", err
		}
		rows, err := source.ReadRows(ctx, sheetRange)
		if err != nil {
			return nil, "", err
		}
		return rows, strings.ReplaceAll(sheetRange, "!", "_") + ".xlsx", nil

	default:
		return nil, "", errors.New("either --file or --sheet-range is required")
	}
}

func (a *app) scanLoop(ctx context.Context) error {
	fmt.Println("Scanează un cod sau tastează o comandă (/stats, /find <text>, /adj <id> <delta>, /export, /quit).")

	stdin := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("scan> ")
		if !stdin.Scan() {
			return stdin.Err()
		}
		line := strings.TrimSpace(stdin.Text())

		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/q":
			return nil
		case line == "/stats":
			a.printStats()
		case line == "/export":
			a.export()
		case strings.HasPrefix(line, "/find "):
			a.printRecords(a.svc.Search(strings.TrimPrefix(line, "/find ")))
		case strings.HasPrefix(line, "/adj "):
			a.adjust(strings.TrimPrefix(line, "/adj "))
		default:
			if err := a.handleScan(stdin, line); err != nil {
				return err
			}
		}
	}
}

func (a *app) handleScan(stdin *bufio.Scanner, code string) error {
	match, err := a.svc.Scan(code)
	if err != nil {
		return err
	}

	description := ""
	if match.Found {
		p := match.Record
		fmt.Printf("Găsit: %s — %s (scriptic %d, numărat %d)\n", p.Code, p.Description, p.ScripticStock, p.ActualStock)
	} else {
		fmt.Printf("Produs nou: %s\n", match.Record.Code)
		fmt.Print("Descriere: ")
		if !stdin.Scan() {
			return stdin.Err()
		}
		description = strings.TrimSpace(stdin.Text())
	}

	fmt.Print("Cantitate [1]: ")
	if !stdin.Scan() {
		return stdin.Err()
	}

	return a.svc.Confirm(match, parseQuantity(stdin.Text()), description)
}

// parseQuantity reads the confirmed count from the prompt: anything
// unparsable counts as one piece, and negative input is clamped to zero so a
// confirmation can never drive a counted quantity below zero.
func parseQuantity(s string) int {
	qty, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 1
	}
	return max(qty, 0)
}

func (a *app) adjust(args string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		fmt.Println("Utilizare: /adj <id> <delta>")
		return
	}
	delta, err := strconv.Atoi(fields[1])
	if err != nil {
		fmt.Println("Delta trebuie să fie un număr întreg.")
		return
	}
	if err := a.svc.Adjust(fields[0], delta); err != nil {
		fmt.Println(err)
	}
}

func (a *app) export() {
	path := spreadsheet.OutputName(a.svc.FileName(), time.Now())
	err := spreadsheet.Export(path, a.svc.Products(), a.svc.OriginalHeaders(), a.svc.Mapping())
	if err != nil {
		fmt.Printf("Export eșuat: %v\n", err)
		return
	}
	fmt.Printf("Exportat: %s\n", path)
}

func (a *app) printStats() {
	s := a.svc.Stats()
	fmt.Printf("Produse: %d | Scanate: %d | Bucăți numărate: %d | Diferențe: %d | Produse noi: %d\n",
		s.TotalItems, s.ScannedItems, s.TotalActualStock, s.Discrepancies, s.NewItems)
}

func (a *app) printRecords(records []models.ProductRecord) {
	if len(records) == 0 {
		fmt.Println("Niciun rezultat.")
		return
	}
	for _, p := range records {
		fmt.Printf("%-24s %-10s scriptic=%-5d numărat=%-5d %s\n", p.ID, p.Code, p.ScripticStock, p.ActualStock, p.Description)
	}
}
