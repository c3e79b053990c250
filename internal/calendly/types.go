package calendly

const defaultBaseURL = "https://api.calendly.com"

// User is the authenticated Calendly user.
type User struct {
	URI          string `json:"uri"`
	Name         string `json:"name"`
	Organization string `json:"organization"`
}

// EventType is a bookable meeting template, e.g. "30 Minute Meeting".
type EventType struct {
	URI      string `json:"uri"`
	Name     string `json:"name"`
	Duration int    `json:"duration"`
	Active   bool   `json:"active"`
}

// SchedulingLink is a single-use booking URL for one event type.
type SchedulingLink struct {
	BookingURL string `json:"booking_url"`
	Owner      string `json:"owner"`
	OwnerType  string `json:"owner_type"`
}

// WebhookSubscription is the registration result for webhook callbacks.
type WebhookSubscription struct {
	URI         string   `json:"uri"`
	CallbackURL string   `json:"callback_url"`
	Events      []string `json:"events"`
	State       string   `json:"state"`
}

type userResponse struct {
	Resource User `json:"resource"`
}

type eventTypesResponse struct {
	Collection []EventType `json:"collection"`
}

type schedulingLinkRequest struct {
	MaxEventCount int    `json:"max_event_count"`
	Owner         string `json:"owner"`
	OwnerType     string `json:"owner_type"`
}

type schedulingLinkResponse struct {
	Resource SchedulingLink `json:"resource"`
}

type webhookSubscriptionRequest struct {
	URL          string   `json:"url"`
	Events       []string `json:"events"`
	Organization string   `json:"organization"`
	Scope        string   `json:"scope"`
}

type webhookSubscriptionResponse struct {
	Resource WebhookSubscription `json:"resource"`
}

// WebhookEvent is the payload POSTed by Calendly on invitee activity.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Invitee struct {
			URI   string `json:"uri"`
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"invitee"`
		Event struct {
			URI       string `json:"uri"`
			StartTime string `json:"start_time"`
			EndTime   string `json:"end_time"`
		} `json:"event"`
	} `json:"payload"`
}
