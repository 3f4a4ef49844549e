package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/artbox-backend/internal/config"
	"github.com/stemsi/artbox-backend/internal/database"
	"github.com/stemsi/artbox-backend/internal/live"
	"github.com/stemsi/artbox-backend/internal/logger"
	"github.com/stemsi/artbox-backend/internal/repository"
	"github.com/stemsi/artbox-backend/internal/service"
	"github.com/stemsi/artbox-backend/internal/validator"
)

func main() {
	var (
		teacherEmail string
		classArg     string
		inPath       string
		outPath      string
	)
	flag.StringVar(&teacherEmail, "teacher", "", "Email of the teacher who owns the class")
	flag.StringVar(&classArg, "class", "", "Class id or join code")
	flag.StringVar(&inPath, "file", "", "Roster .xlsx to import")
	flag.StringVar(&outPath, "out", "credentials.xlsx", "Where to write the generated credentials")
	flag.Parse()

	if teacherEmail == "" || classArg == "" || inPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: import-roster -teacher <email> -class <id|join code> -file roster.xlsx [-out credentials.xlsx]")
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	validator.Setup()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Redis carries the roster change events, so open teacher views refresh.
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	userRepo := repository.NewUserRepository(pool)
	classRepo := repository.NewClassRepository(pool)
	notifier := live.NewRedisNotifier(rdb, log)

	authService := service.NewAuthService(cfg, userRepo, classRepo, service.NewRedisSessionStore(rdb), notifier, log)
	classService := service.NewClassService(classRepo, userRepo, log)
	importService := service.NewImportService(authService, classService, log)

	teacher, err := userRepo.GetByEmail(ctx, teacherEmail)
	if err != nil {
		log.Fatal().Err(err).Str("email", teacherEmail).Msg("Teacher not found")
	}

	classID, err := uuid.Parse(classArg)
	if err != nil {
		class, err := classRepo.GetByJoinCode(ctx, classArg)
		if err != nil {
			log.Fatal().Err(err).Str("class", classArg).Msg("Class not found")
		}
		classID = class.ID
	}

	in, err := os.Open(inPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open roster")
	}
	defer in.Close()

	results, err := importService.ImportWorkbook(ctx, teacher.ID, classID, in)
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}

	out, err := os.Create(outPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create credentials file")
	}
	if err := service.WriteImportResultsWorkbook(out, results); err != nil {
		out.Close()
		log.Fatal().Err(err).Msg("Failed to write credentials")
	}
	if err := out.Close(); err != nil {
		log.Fatal().Err(err).Msg("Failed to write credentials")
	}

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
			fmt.Printf("row %d (%s): %s\n", r.Row, r.Name, r.Error)
		}
	}
	fmt.Printf("\nImported %d of %d students. Credentials written to %s\n", len(results)-failed, len(results), outPath)
}
