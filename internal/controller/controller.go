// Package controller is the only writer of a session's address. Every write
// hands the decoded state to the fetch coordinator.
package controller

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/utafrali/storefront-browse/internal/address"
	"github.com/utafrali/storefront-browse/internal/domain"
	"github.com/utafrali/storefront-browse/internal/i18n"
	"github.com/utafrali/storefront-browse/internal/querystate"
	apperrors "github.com/utafrali/storefront-browse/pkg/errors"
)

// Fetcher receives every new filter state.
type Fetcher interface {
	Update(state domain.FilterState)
}

// Controller funnels address edits. Edits are serialized so that each one
// reads the address it replaces.
type Controller struct {
	addr    *address.Store
	fetcher Fetcher
	dict    i18n.Translator
	logger  *slog.Logger

	mu sync.Mutex
}

// New creates a controller that owns addr.
func New(addr *address.Store, fetcher Fetcher, dict i18n.Translator, logger *slog.Logger) *Controller {
	return &Controller{
		addr:    addr,
		fetcher: fetcher,
		dict:    dict,
		logger:  logger,
	}
}

// Navigate replaces the whole address, as history navigation or an opened
// link does.
func (c *Controller) Navigate(rawQuery string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	params, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err != nil {
		c.logger.Debug("malformed address, navigating to empty address",
			slog.String("query", rawQuery),
			slog.String("error", err.Error()),
		)
		params = url.Values{}
	}
	return c.write(params)
}

// SetFilter merges patch onto the current state. Any change to a field other
// than page starts over at page 1.
func (c *Controller) SetFilter(patch domain.Patch) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.write(querystate.Encode(c.addr.State(), patch))
}

// SetPage moves to page keeping every other parameter as it is.
func (c *Controller) SetPage(page int) (string, error) {
	if page < 1 {
		return "", apperrors.InvalidInput(fmt.Sprintf("page must be a positive integer, got %d", page))
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	params := c.addr.Values()
	params.Set(string(domain.KeyPage), strconv.Itoa(page))
	return c.write(params), nil
}

// RemoveFilter drops key from the address and returns to page 1.
func (c *Controller) RemoveFilter(key domain.FilterKey) (string, error) {
	if !key.IsValid() || key == domain.KeyPage {
		return "", apperrors.InvalidInput(fmt.Sprintf("unknown filter %q", key))
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	params := c.addr.Values()
	params.Del(string(key))
	params.Set(string(domain.KeyPage), "1")
	return c.write(params), nil
}

// ResetFilters keeps only the category.
func (c *Controller) ResetFilters() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	params := url.Values{}
	if category := c.addr.State().Category; category != "" {
		params.Set(string(domain.KeyCategory), category)
	}
	return c.write(params)
}

// Search navigates to the catalog results for text. Blank text is ignored.
func (c *Controller) Search(text string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	text = strings.TrimSpace(text)
	if text == "" {
		return c.addr.Query(), false
	}
	params := url.Values{}
	params.Set(string(domain.KeySearch), text)
	return c.write(params), true
}

// ActiveChips lists the removable optional filters of the current address.
// Category and sort order are never chips.
func (c *Controller) ActiveChips(lang string) []domain.Chip {
	s := c.addr.State()
	currency := c.dict.T(lang, i18n.KeyCurrency)

	chips := []domain.Chip{}
	if s.MinPrice != nil {
		v := querystate.FormatPrice(*s.MinPrice)
		chips = append(chips, domain.Chip{
			Key:   domain.KeyMinPrice,
			Value: v,
			Label: fmt.Sprintf("%s: %s %s", c.dict.T(lang, i18n.KeyPriceFrom), v, currency),
		})
	}
	if s.MaxPrice != nil {
		v := querystate.FormatPrice(*s.MaxPrice)
		chips = append(chips, domain.Chip{
			Key:   domain.KeyMaxPrice,
			Value: v,
			Label: fmt.Sprintf("%s: %s %s", c.dict.T(lang, i18n.KeyPriceTo), v, currency),
		})
	}
	if s.Brand != "" {
		chips = append(chips, domain.Chip{
			Key:   domain.KeyBrand,
			Value: s.Brand,
			Label: fmt.Sprintf("%s: %s", c.dict.T(lang, i18n.KeyBrand), s.Brand),
		})
	}
	if s.InStock {
		chips = append(chips, domain.Chip{
			Key:   domain.KeyInStock,
			Value: "true",
			Label: c.dict.T(lang, i18n.KeyInStock),
		})
	}
	return chips
}

// Query returns the current address.
func (c *Controller) Query() string {
	return c.addr.Query()
}

func (c *Controller) write(params url.Values) string {
	changed := c.addr.Replace(params)
	state := c.addr.State()
	if changed {
		c.logger.Debug("address changed",
			slog.String("query", c.addr.Query()),
			slog.Uint64("version", c.addr.Version()),
		)
	}
	c.fetcher.Update(state)
	return c.addr.Query()
}
