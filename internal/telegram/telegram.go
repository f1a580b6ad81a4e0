package telegram

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"bestdeal/server/internal/models"
)

// Service sends deal notifications to a Telegram chat.
type Service struct {
	logger  *logrus.Logger
	client  *http.Client
	apiBase string
	config  *models.TelegramConfig
	filters *models.TelegramFilters
}

func NewService(logger *logrus.Logger) *Service {
	return &Service{
		logger: logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		apiBase: "https://api.telegram.org",
	}
}

func (s *Service) UpdateConfig(config *models.TelegramConfig) {
	s.config = config
}

func (s *Service) UpdateFilters(filters *models.TelegramFilters) {
	s.filters = filters
}

// SendMessage sends a message to the configured Telegram chat.
func (s *Service) SendMessage(message string) error {
	if s.config == nil || !s.config.IsEnabled {
		return nil
	}

	if s.config.BotToken == "" {
		return errors.New("Telegram bot token is not configured")
	}

	if s.config.ChatID == "" {
		return errors.New("Telegram chat ID is not configured")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.config.BotToken)
	payload := map[string]interface{}{
		"chat_id":    s.config.ChatID,
		"text":       message,
		"parse_mode": "HTML",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %v", err)
	}

	resp, err := s.client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return errors.New("invalid bot token - please check your token from @BotFather")
		case http.StatusBadRequest:
			return fmt.Errorf("invalid chat ID or message format: %s", string(body))
		case http.StatusForbidden:
			return errors.New("bot was blocked by the user or chat")
		case http.StatusNotFound:
			return errors.New("bot not found - please check your token from @BotFather")
		default:
			return fmt.Errorf("Telegram API error (status %d): %s", resp.StatusCode, string(body))
		}
	}

	return nil
}

// NotifyPriceDrop sends a notification for a record whose price beat the
// previously stored one. Records filtered out by the configured price range
// or site list are silently skipped.
func (s *Service) NotifyPriceDrop(record *models.ProductRecord, previous *float64) error {
	if s.config == nil || !s.config.IsEnabled {
		return nil
	}

	if !s.filters.IsDealAllowed(record) {
		s.logger.WithFields(logrus.Fields{
			"product": record.Name,
			"site":    record.Site,
			"price":   record.Price,
		}).Debug("Deal filtered out, not notifying")
		return nil
	}

	title := "<b>💸 New Best Price!</b>"
	priceLine := fmt.Sprintf("💰 EGP %.2f", record.Price)
	if previous != nil {
		savings := *previous - record.Price
		title = "<b>💸 Price Drop!</b>"
		priceLine = fmt.Sprintf("💰 EGP %.2f (was EGP %.2f, save EGP %.2f)",
			record.Price, *previous, savings)
	}

	message := fmt.Sprintf(
		"%s\n\n"+
			"🛒 %s\n"+
			"🏬 %s\n"+
			"%s\n\n"+
			"🔗 <a href=\"%s\">View listing</a>",
		title,
		record.Name,
		record.Site,
		priceLine,
		record.URL,
	)

	return s.SendMessage(message)
}
