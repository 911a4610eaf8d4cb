package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"crypto-weather/internal/domain"

	tele "gopkg.in/telebot.v3"
)

type QuoteQuerier interface {
	GetQuote(ctx context.Context, idOrSymbol string) (domain.CoinQuote, error)
}

type Forecaster interface {
	Generate(ctx context.Context, idOrSymbol string, level domain.ConfidenceLevel) (domain.ForecastResult, error)
}

type Advisor interface {
	Ask(ctx context.Context, question string) (string, error)
}

func StartTelegramBot(quoteService QuoteQuerier, forecastService Forecaster, advisorService Advisor) *AlertDispatcher {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}
	alerts := NewAlertDispatcher(b)

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/price", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send(fmt.Sprintf("Usage: /price BTC\nSupported: %s", supportedSymbols()))
		}
		coin, ok := resolveCoin(args[0])
		if !ok {
			return c.Send(fmt.Sprintf("Unknown coin: %s\nSupported: %s", args[0], supportedSymbols()))
		}
		quote, err := quoteService.GetQuote(context.Background(), coin.GeckoID)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching price for %s: %v", coin.Symbol, err))
		}
		msg := fmt.Sprintf(
			"%s (%s)\nPrice: $%.2f\n24h Change: %.2f%%\n24h Volume: $%.0f",
			quote.Name, quote.Symbol, quote.PriceUSD, quote.Change24h, quote.Volume24h,
		)
		return c.Send(msg)
	})

	b.Handle("/forecast", func(c tele.Context) error {
		if forecastService == nil {
			return c.Send("Forecast service unavailable")
		}

		args := c.Args()
		if len(args) == 0 {
			return c.Send(fmt.Sprintf("Usage: /forecast BTC [conservative|moderate|aggressive]\nSupported: %s", supportedSymbols()))
		}
		coin, ok := resolveCoin(args[0])
		if !ok {
			return c.Send(fmt.Sprintf("Unknown coin: %s\nSupported: %s", args[0], supportedSymbols()))
		}

		level := domain.Moderate
		if len(args) > 1 {
			level = domain.ConfidenceLevel(strings.ToLower(strings.TrimSpace(args[1])))
			if _, err := level.Multiplier(); err != nil {
				return c.Send("Confidence must be conservative, moderate, or aggressive.")
			}
		}

		result, err := forecastService.Generate(context.Background(), coin.GeckoID, level)
		if err != nil {
			return c.Send(fmt.Sprintf("Error generating forecast for %s: %v", coin.Symbol, err))
		}
		return c.Send(formatForecast(result))
	})

	b.Handle("/alerts", func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return c.Send("Unable to detect chat")
		}

		mode, err := parseAlertMode(c.Args())
		if err != nil {
			return c.Send("Usage: /alerts on | /alerts off | /alerts status")
		}

		switch mode {
		case "on":
			if alerts.Subscribe(chat.ID) {
				return c.Send("Weather alerts enabled for this chat.")
			}
			return c.Send("Weather alerts are already enabled for this chat.")
		case "off":
			if alerts.Unsubscribe(chat.ID) {
				return c.Send("Weather alerts disabled for this chat.")
			}
			return c.Send("Weather alerts are already disabled for this chat.")
		default:
			if alerts.IsSubscribed(chat.ID) {
				return c.Send("Alerts status: ON")
			}
			return c.Send("Alerts status: OFF")
		}
	})

	b.Handle("/ask", func(c tele.Context) error {
		if advisorService == nil {
			return c.Send("Advisor not configured. Set OPENAI_API_KEY to enable.")
		}
		question := strings.TrimSpace(c.Message().Payload)
		if question == "" {
			return c.Send("Usage: /ask <question>\nExample: /ask How does the weather look for BTC?")
		}
		return handleAdvisorQuery(c, advisorService, question)
	})

	b.Handle(tele.OnText, func(c tele.Context) error {
		if advisorService == nil {
			return nil
		}
		text := strings.TrimSpace(c.Text())
		if text == "" {
			return nil
		}
		return handleAdvisorQuery(c, advisorService, text)
	})

	log.Println("Telegram bot started")
	go b.Start()
	return alerts
}

func handleAdvisorQuery(c tele.Context, adv Advisor, question string) error {
	_ = c.Notify(tele.Typing)

	reply, err := adv.Ask(context.Background(), question)
	if err != nil {
		log.Printf("advisor error for chat %d: %v", c.Chat().ID, err)
		return c.Send("Sorry, I'm having trouble right now. Try /price or /forecast for raw data.")
	}

	if len(reply) > 4000 {
		reply = reply[:4000] + "\n\n[truncated]"
	}

	return c.Send(reply)
}

func resolveCoin(arg string) (domain.Coin, bool) {
	arg = strings.TrimSpace(arg)
	if c, ok := domain.CoinBySymbol[strings.ToUpper(arg)]; ok {
		return c, true
	}
	if c, ok := domain.CoinByID[strings.ToLower(arg)]; ok {
		return c, true
	}
	return domain.Coin{}, false
}

func supportedSymbols() string {
	symbols := make([]string, 0, len(domain.SupportedIDs))
	for _, id := range domain.SupportedIDs {
		symbols = append(symbols, domain.CoinByID[id].Symbol)
	}
	return strings.Join(symbols, ", ")
}

func formatForecast(r domain.ForecastResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s) — $%.2f\n%s\n", r.Coin, r.Symbol, r.CurrentPrice, r.Summary)
	for _, day := range r.Days {
		fmt.Fprintf(&sb, "%s %s %s: $%.2f ($%.2f to $%.2f)\n",
			day.Date.Format("Mon Jan 2"), day.Icon, day.Weather, day.Price, day.Range.Low, day.Range.High)
	}
	for _, a := range r.Alerts {
		sb.WriteString(formatAlert(a))
		sb.WriteString("\n")
	}
	sb.WriteString(r.Disclaimer)
	return sb.String()
}
