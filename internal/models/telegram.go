package models

import "time"

// TelegramConfig stores the bot credentials and basic settings
type TelegramConfig struct {
	IsEnabled bool      `json:"is_enabled"`
	BotToken  string    `json:"bot_token"`
	ChatID    string    `json:"chat_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TelegramFilters stores the deal-notification filter settings
type TelegramFilters struct {
	MinPrice *float64 `json:"min_price"`
	MaxPrice *float64 `json:"max_price"`
	Sites    []string `json:"sites"`
}

// IsDealAllowed checks if a product record matches the filter criteria
func (f *TelegramFilters) IsDealAllowed(record *ProductRecord) bool {
	if f == nil {
		return true // No filters means allow all
	}

	if f.MinPrice != nil && record.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && record.Price > *f.MaxPrice {
		return false
	}

	if len(f.Sites) > 0 {
		allowed := false
		for _, site := range f.Sites {
			if site == record.Site {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	return true
}
