package main

import (
	"database/sql"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration")
	}

	db, err := sql.Open("sqlite3", cfg.DBFile+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.DBFile).Msg("open database")
	}
	defer db.Close()

	repo := NewSQLiteRepository(db)
	if err := repo.CreateTables(); err != nil {
		log.Fatal().Err(err).Msg("create tables")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram authorization")
	}
	log.Info().Str("bot", bot.Self.UserName).Msg("authorized")

	ui := LoadUI(cfg.StringsFile)
	app := NewApp(bot, repo, ui, cfg.Timezone, bot.Self.UserName)
	app.scheduler.RecoverPending()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates, err := bot.GetUpdatesChan(u)
	if err != nil {
		log.Fatal().Err(err).Msg("updates channel")
	}
	log.Info().Msg("serving updates")

	for update := range updates {
		app.HandleUpdate(update)
	}
}
