// internal/service/template_service.go
package service

import (
	"fmt"
	"log"
	"strings"

	"github.com/unclebandit/jetmatch-backend/internal/model"
	"github.com/unclebandit/jetmatch-backend/internal/queue"
)

// RenderTemplate replaces {key} placeholders; empty values render as N/A.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		if v == "" {
			v = "N/A"
		}
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

var eventTemplates = map[string]string{
	model.EventCampaignCreated:   "📣 {business} created \"{title}\" ({status})",
	model.EventCampaignSubmitted: "📝 \"{title}\" submitted for approval",
	model.EventCampaignApproved:  "✅ \"{title}\" approved and open for applications",
	model.EventCampaignApplied:   "🙋 {influencer} applied to \"{title}\"",
	model.EventCampaignOffered:   "🤝 \"{title}\" offered to {influencer}",
	model.EventCampaignAccepted:  "🎉 {influencer} accepted \"{title}\"",
	model.EventCampaignRejected:  "🚫 {influencer} declined \"{title}\"",
	model.EventCampaignCompleted: "💸 \"{title}\" completed, payment {payment} of {amount} to {influencer}",
}

// RenderEvent turns a lifecycle event into a one-line notification.
func RenderEvent(e model.CampaignEvent) string {
	template, ok := eventTemplates[e.Type]
	if !ok {
		template = "{type} on \"{title}\" ({status})"
	}
	influencer := e.Influencer
	if influencer == "" {
		influencer = e.InfluencerID
	}
	amount := ""
	if e.PaymentID != "" {
		amount = fmt.Sprintf("%.2f", e.Amount)
	}
	return RenderTemplate(template, map[string]string{
		"type":       e.Type,
		"title":      e.Title,
		"status":     string(e.Status),
		"business":   e.BusinessName,
		"influencer": influencer,
		"payment":    e.PaymentID,
		"amount":     amount,
	})
}

// CampaignEventHandler is a queue handler that renders events and passes the
// line to notify. A nil notify logs it.
func CampaignEventHandler(notify func(line string)) func(payload any) error {
	if notify == nil {
		notify = func(line string) { log.Println(line) }
	}
	return func(payload any) error {
		var e model.CampaignEvent
		if err := queue.Decode(payload, &e); err != nil {
			log.Println("⚠️ Invalid campaign event:", err)
			return nil
		}
		notify(RenderEvent(e))
		return nil
	}
}

// StartCampaignEventSubscriber logs a notification for every lifecycle event.
func StartCampaignEventSubscriber(q queue.Queue, notify func(line string)) {
	queue.StartSubscriber(q, queue.TopicCampaignEvents, CampaignEventHandler(notify))
}
