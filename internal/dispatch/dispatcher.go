// Package dispatch turns a decided response into gateway calls: transport
// shape selection, field truncation, phone-format retries and the plain-text
// degradation path. A response the state machine decided to send is never
// silently dropped.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"chatbot-gateway/internal/bot"
	"chatbot-gateway/internal/models"
	"chatbot-gateway/internal/phone"
	"chatbot-gateway/internal/whatsapp"
)

// Documented transport field limits. Overlong fields are truncated, never
// rejected.
const (
	maxTitleLen        = 60
	maxDescriptionLen  = 1024
	maxSectionTitleLen = 24
	maxRowTitleLen     = 24
	maxRowDescLen      = 72
	maxButtonLen       = 20
	maxListRows        = 10
)

// Gateway is the send surface the dispatcher needs; implemented by
// whatsapp.Client.
type Gateway interface {
	SendText(ctx context.Context, instance, number, text string) error
	SendList(ctx context.Context, instance string, msg whatsapp.ListPayload) error
	SendImage(ctx context.Context, instance, number, caption, imageURL string) error
	SendPresence(ctx context.Context, instance, number string, durationMs int) error
}

type Dispatcher struct {
	Gateway     Gateway
	SendTimeout time.Duration

	sleep func(time.Duration) // swapped out in tests

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func New(gw Gateway, sendTimeout time.Duration) *Dispatcher {
	return &Dispatcher{
		Gateway:     gw,
		SendTimeout: sendTimeout,
		sleep:       time.Sleep,
		limiters:    make(map[string]*rate.Limiter),
	}
}

// limiter returns the per-instance outbound limiter: one message per second
// with a small burst, enough to stay under gateway spam heuristics.
func (d *Dispatcher) limiter(instance string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.limiters[instance]
	if !ok {
		l = rate.NewLimiter(rate.Limit(1), 3)
		d.limiters[instance] = l
	}
	return l
}

// Dispatch sends one response, walking the phone-format variants in order
// and degrading an interactive message to its plain-text rendering before
// giving up. Returns an error only when every variant and the fallback are
// exhausted.
func (d *Dispatcher) Dispatch(ctx context.Context, instance *models.Instance, recipient string, resp *bot.Response) error {
	variants := phone.Variants(recipient)

	if err := d.limiter(instance.Name).Wait(ctx); err != nil {
		return err
	}

	if instance.TypingSimulation {
		delay := humanDelay(instance)
		if err := d.attempt(ctx, func(actx context.Context) error {
			return d.Gateway.SendPresence(actx, instance.Name, variants[0], int(delay/time.Millisecond))
		}); err != nil {
			log.Printf("Presence to %s failed (ignored): %v", variants[0], err)
		}
		d.sleep(delay)
	}

	if len(resp.Rows) > 0 && instance.UseListMessages {
		payload := buildListPayload(instance, resp)
		for _, v := range variants {
			payload.Number = v
			err := d.attempt(ctx, func(actx context.Context) error {
				return d.Gateway.SendList(actx, instance.Name, payload)
			})
			if err == nil {
				return nil
			}
			logVariantFailure("list", v, err)
		}
		log.Printf("List send exhausted all variants for %s, degrading to plain text", recipient)
	} else if resp.ImageURL != "" {
		caption := truncate(resp.PlainText(), maxDescriptionLen)
		for _, v := range variants {
			err := d.attempt(ctx, func(actx context.Context) error {
				return d.Gateway.SendImage(actx, instance.Name, v, caption, resp.ImageURL)
			})
			if err == nil {
				return nil
			}
			logVariantFailure("image", v, err)
		}
		log.Printf("Image send exhausted all variants for %s, degrading to plain text", recipient)
	}

	text := resp.PlainText()
	for _, v := range variants {
		err := d.attempt(ctx, func(actx context.Context) error {
			return d.Gateway.SendText(actx, instance.Name, v, text)
		})
		if err == nil {
			return nil
		}
		logVariantFailure("text", v, err)
	}

	return fmt.Errorf("all phone variants exhausted for %s", recipient)
}

func (d *Dispatcher) attempt(ctx context.Context, send func(context.Context) error) error {
	actx, cancel := context.WithTimeout(ctx, d.SendTimeout)
	defer cancel()
	return send(actx)
}

func logVariantFailure(shape, variant string, err error) {
	class := "transport"
	if whatsapp.IsClientError(err) {
		class = "client"
	} else if whatsapp.IsServerError(err) {
		class = "server"
	}
	log.Printf("%s send to variant %s failed (%s error): %v", shape, variant, class, err)
}

func buildListPayload(instance *models.Instance, resp *bot.Response) whatsapp.ListPayload {
	title := resp.Title
	if title == "" {
		title = "Menu"
	}
	buttonText := instance.ListButtonLabel
	if buttonText == "" {
		buttonText = "Ver opções"
	}

	rows := resp.Rows
	if len(rows) > maxListRows {
		rows = rows[:maxListRows]
	}
	listRows := make([]whatsapp.ListRow, 0, len(rows))
	for _, r := range rows {
		listRows = append(listRows, whatsapp.ListRow{
			RowID:       r.ID,
			Title:       truncate(r.Title, maxRowTitleLen),
			Description: truncate(r.Description, maxRowDescLen),
		})
	}

	return whatsapp.ListPayload{
		Title:       truncate(title, maxTitleLen),
		Description: truncate(resp.Text, maxDescriptionLen),
		ButtonText:  truncate(buttonText, maxButtonLen),
		Sections: []whatsapp.ListSection{
			{Title: truncate(title, maxSectionTitleLen), Rows: listRows},
		},
	}
}

func humanDelay(instance *models.Instance) time.Duration {
	min, max := instance.DelayMinMs, instance.DelayMaxMs
	if min < 0 {
		min = 0
	}
	if max <= min {
		return time.Duration(min) * time.Millisecond
	}
	return time.Duration(min+rand.Intn(max-min)) * time.Millisecond
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
