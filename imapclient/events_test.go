package imapclient

import "testing"

func TestEventHandler_SubscribeAndPublish(t *testing.T) {
	var h EventHandler
	got := make(chan *Folder, 1)
	if err := h.Subscribe(EventMessageCount, func(f *Folder) { got <- f }); err != nil {
		t.Fatal(err)
	}
	f := &Folder{Name: "INBOX"}
	h.Publish(EventMessageCount, f)
	select {
	case recv := <-got:
		if recv != f {
			t.Fatalf("got %+v", recv)
		}
	default:
		t.Fatal("expected Publish to deliver synchronously to the subscriber")
	}
}

func TestEventHandler_PublishWithNoSubscribersIsNoop(t *testing.T) {
	var h EventHandler
	h.Publish(EventMessageChanged, &Folder{}) // must not panic
}

func TestEvent_String(t *testing.T) {
	if EventMessageCount.String() == "" {
		t.Fatal("expected a non-empty name")
	}
	if Event(99).String() != "imapclient:unknown" {
		t.Fatalf("got %q", Event(99).String())
	}
}
