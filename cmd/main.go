package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"geoassist/internal/config"
	"geoassist/internal/entities"
	"geoassist/internal/infrastructure"
	"geoassist/internal/interfaces"
	httpiface "geoassist/internal/interfaces/http"
	"geoassist/internal/repository"
	"geoassist/internal/usecases"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.Load()
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	ctx := context.Background()

	if cfg.Gemini.APIKey == "" || cfg.Geocode.APIKey == "" {
		log.Fatal().Msg("GEMINI_API_KEY and OPENCAGE_API_KEY must be set")
	}

	// Account store: embedded sqlite by default, postgres when configured.
	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open account store")
	}
	defer store.Close()

	sessions := infrastructure.NewSessionManager()
	auth := usecases.NewAuthUsecase(store, sessions, cfg.JWTSecret, log)

	if err := auth.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Warn().Err(err).Msg("failed to ensure admin user")
	}

	gemini, err := infrastructure.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gemini client")
	}
	geocoder := infrastructure.NewOpenCageClient(cfg.Geocode.APIKey, cfg.Geocode.BaseURL,
		cfg.Geocode.MaxAttempts, cfg.Geocode.Backoff, cfg.Geocode.RatePerSec, log)
	overpass := infrastructure.NewOverpassClient(cfg.POI.OverpassURL)
	wiki := infrastructure.NewWikipediaClientForLang(cfg.Wiki.Lang)

	gate := usecases.NewAccessGate(store, cfg.FreeQuota, log)
	resolver := usecases.NewLocationResolver(gemini, geocoder, log)
	enricher := usecases.NewEnricher(overpass, wiki, cfg.POI.RadiusM, log)
	summary := usecases.NewSummaryFetcher(wiki, cfg.Wiki.GeographyMarker, cfg.Wiki.HistoryMarker, log)
	assistant := usecases.NewAssistant(gate, resolver, enricher, summary, log)

	authMiddleware := httpiface.NewMiddleware(cfg.JWTSecret)

	// Setup HTTP server
	r := gin.Default()
	httpiface.SetupRoutes(r, assistant, auth, sessions, store, authMiddleware, log)
	go func() {
		if err := r.Run(cfg.HTTPAddr); err != nil {
			log.Fatal().Err(err).Msg("failed to start HTTP server")
		}
	}()

	// Telegram polling
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		log.Info().Msg("Telegram disabled (token missing or invalid), web surface only")
		select {} // HTTP runs in its goroutine, nothing else to do here
	}
	log.Info().Str("bot", bot.Self.UserName).Msg("Telegram bot connected")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	tg := &telegramSurface{
		bot:       bot,
		auth:      auth,
		assistant: assistant,
		sessions:  sessions,
		log:       log,
	}

	for update := range updates {
		if update.Message != nil {
			tg.handleMessage(ctx, update.Message)
		}
		if update.CallbackQuery != nil {
			tg.handleCallback(ctx, update.CallbackQuery)
		}
	}
}

func openStore(ctx context.Context, cfg config.Config) (interfaces.AccountStore, error) {
	switch cfg.DB.Driver {
	case "postgres":
		return repository.NewPostgresStore(ctx, cfg.DB.DSN)
	case "sqlite", "":
		return repository.NewSQLiteStore(cfg.DB.DSN)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DB.Driver)
	}
}

// telegramSurface drives the access gate and the assistant from a chat.
type telegramSurface struct {
	bot       *tgbotapi.BotAPI
	auth      *usecases.AuthUsecase
	assistant *usecases.Assistant
	sessions  *infrastructure.SessionManager
	log       zerolog.Logger
}

func sessionID(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

func (t *telegramSurface) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	session := t.sessions.Get(sessionID(chatID))

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			t.send(chatID, "Welcome! 👋 I resolve places from your prompts and show nearby sights.\n\nLog in first: /login <username> <password>")
		case "login":
			t.handleLogin(ctx, chatID, msg.CommandArguments())
		case "logout":
			t.handleLogout(chatID, session)
		case "pay":
			t.handlePay(ctx, chatID, session, msg.CommandArguments())
		default:
			t.send(chatID, "Unknown command. Try /start, /login, /pay or /logout.")
		}
		return
	}

	if session == nil {
		t.send(chatID, "Please log in first: /login <username> <password>")
		return
	}

	t.handlePrompt(ctx, chatID, session, msg.Text)
}

func (t *telegramSurface) handleLogin(ctx context.Context, chatID int64, args string) {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		t.send(chatID, "Usage: /login <username> <password>")
		return
	}

	user, err := t.auth.Authenticate(ctx, parts[0], parts[1])
	if errors.Is(err, entities.ErrAuthenticationFailed) {
		t.send(chatID, "❌ Invalid username or password.")
		return
	}
	if err != nil {
		t.send(chatID, "Login failed, please try again.")
		return
	}

	t.sessions.Create(sessionID(chatID), user.ID, user.Username, user.PaymentDone)
	t.send(chatID, fmt.Sprintf("✅ Logged in as *%s*. Send me a prompt, e.g. _\"tell me about the Eiffel Tower\"_.", user.Username))
}

func (t *telegramSurface) handleLogout(chatID int64, session *infrastructure.Session) {
	if session == nil {
		t.send(chatID, "You are not logged in.")
		return
	}
	t.assistant.Gate().Logout(session)
	t.sessions.Delete(session.ID)
	t.send(chatID, "👋 Logged out.")
}

func (t *telegramSurface) handlePay(ctx context.Context, chatID int64, session *infrastructure.Session, args string) {
	if session == nil {
		t.send(chatID, "Please log in first: /login <username> <password>")
		return
	}

	parts := strings.Fields(args)
	if len(parts) < 2 {
		t.send(chatID, "Usage: /pay <card number> <security code> [amount]")
		return
	}
	amount := 0.0
	if len(parts) > 2 {
		amount, _ = strconv.ParseFloat(parts[2], 64)
	}

	err := t.assistant.Gate().SubmitPayment(ctx, session, session.Username, parts[0], parts[1], amount)
	switch {
	case errors.Is(err, entities.ErrPaymentInvalidCard):
		t.send(chatID, "❌ Invalid card details. The card number has 16 digits and the security code 3.")
	case errors.Is(err, entities.ErrPaymentUsernameMismatch):
		t.send(chatID, "❌ Payment username mismatch.")
	case err != nil:
		t.send(chatID, "Payment failed, please try again.")
	default:
		t.send(chatID, "✅ Payment accepted! Your access is restored.")
	}
}

func (t *telegramSurface) handlePrompt(ctx context.Context, chatID int64, session *infrastructure.Session, text string) {
	result, err := t.assistant.HandlePrompt(ctx, session, text)
	switch {
	case errors.Is(err, entities.ErrQuotaExceeded):
		reply := tgbotapi.NewMessage(chatID, "🔒 Your free prompts are used up. Please pay to continue.")
		keyboard := httpiface.CreatePaywallKeyboard()
		reply.ReplyMarkup = &keyboard
		t.bot.Send(reply)
		return
	case errors.Is(err, entities.ErrGeocodeNotFound):
		t.send(chatID, "🤷 I could not find that location.")
		return
	case err != nil:
		t.log.Error().Err(err).Msg("telegram prompt failed")
		t.send(chatID, "Something went wrong resolving that, please try again.")
		return
	}

	// The resolved place arrives as a venue pin, the details as text.
	venue := tgbotapi.NewVenue(chatID, result.Place.Name, result.MapURL, result.Place.Lat, result.Place.Lon)
	t.bot.Send(venue)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📍 *%s* (%.4f, %.4f)\n", result.Place.Name, result.Place.Lat, result.Place.Lon))
	if len(result.Annotations) > 0 {
		sb.WriteString("\n*Nearby sights:*\n")
		limit := 10
		if len(result.Annotations) < limit {
			limit = len(result.Annotations)
		}
		for i := 0; i < limit; i++ {
			a := result.Annotations[i]
			sb.WriteString(fmt.Sprintf("• [%s](%s)\n", a.Name, a.ReferenceURL))
		}
	}
	if result.Summary.Note != "" {
		sb.WriteString("\n" + result.Summary.Note)
	} else if result.Summary.History != "" {
		sb.WriteString("\n*History:*\n" + httpiface.TruncateString(result.Summary.History, 1000))
	}

	reply := tgbotapi.NewMessage(chatID, sb.String())
	reply.ParseMode = "Markdown"
	keyboard := httpiface.CreateResultKeyboard(result.MapURL)
	reply.ReplyMarkup = &keyboard
	t.bot.Send(reply)
}

func (t *telegramSurface) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	session := t.sessions.Get(sessionID(chatID))

	t.bot.Request(tgbotapi.NewCallback(cb.ID, ""))

	switch cb.Data {
	case "action_pay":
		if session == nil {
			t.send(chatID, "Please log in first: /login <username> <password>")
			return
		}
		if err := t.assistant.Gate().InitiatePayment(session); err != nil {
			t.send(chatID, "No payment is required right now.")
			return
		}
		t.send(chatID, "💳 Enter your card details: /pay <card number> <security code> [amount]")
	case "action_logout":
		t.handleLogout(chatID, session)
	case "action_ask":
		t.send(chatID, "❓ Send me another prompt.")
	}
}

func (t *telegramSurface) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := t.bot.Send(msg); err != nil {
		t.log.Warn().Err(err).Msg("telegram send failed")
	}
}
