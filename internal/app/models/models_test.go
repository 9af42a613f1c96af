package models

import "testing"

func TestValidateAlias(t *testing.T) {
	tests := []struct {
		name    string
		alias   string
		wantErr bool
	}{
		{name: "valid short", alias: "abc"},
		{name: "valid with dash and underscore", alias: "my-link_2"},
		{name: "too short", alias: "ab", wantErr: true},
		{name: "too long", alias: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", wantErr: true},
		{name: "invalid characters", alias: "my link!", wantErr: true},
		{name: "empty", alias: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAlias(tt.alias)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAlias(%q) = %v, wantErr %v", tt.alias, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDestinations(t *testing.T) {
	tests := []struct {
		name         string
		destinations []Destination
		wantErr      bool
	}{
		{
			name: "two destinations summing to 100",
			destinations: []Destination{
				{URL: "https://a.test", Weight: 30},
				{URL: "https://b.test", Weight: 70},
			},
		},
		{
			name: "three destinations summing to 100",
			destinations: []Destination{
				{URL: "https://a.test", Weight: 50},
				{URL: "https://b.test", Weight: 25},
				{URL: "https://c.test", Weight: 25},
			},
		},
		{
			name: "single destination",
			destinations: []Destination{
				{URL: "https://a.test", Weight: 100},
			},
			wantErr: true,
		},
		{
			name: "weights sum below 100",
			destinations: []Destination{
				{URL: "https://a.test", Weight: 30},
				{URL: "https://b.test", Weight: 30},
			},
			wantErr: true,
		},
		{
			name: "negative weight",
			destinations: []Destination{
				{URL: "https://a.test", Weight: -10},
				{URL: "https://b.test", Weight: 110},
			},
			wantErr: true,
		},
		{
			name: "missing url",
			destinations: []Destination{
				{URL: "", Weight: 50},
				{URL: "https://b.test", Weight: 50},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDestinations(tt.destinations)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDestinations() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateEvents(t *testing.T) {
	if err := ValidateEvents([]string{EventClick, EventMilestone}); err != nil {
		t.Errorf("ValidateEvents(valid) = %v", err)
	}
	if err := ValidateEvents([]string{"bogus"}); err == nil {
		t.Error("ValidateEvents(bogus) expected error")
	}
	if err := ValidateEvents(nil); err == nil {
		t.Error("ValidateEvents(nil) expected error")
	}
}

func TestWebhookSubscribed(t *testing.T) {
	w := &Webhook{Events: []string{EventClick, EventMilestone}}
	if !w.Subscribed(EventClick) {
		t.Error("expected webhook to be subscribed to click")
	}
	if w.Subscribed(EventURLDeleted) {
		t.Error("did not expect subscription to url_deleted")
	}
}
