package field

import "testing"

func TestAddressList_SimpleMailbox(t *testing.T) {
	addrs, err := AddressList(nil, "Barry Gibbs <bg@example.com>")
	if err != nil {
		t.Fatal(err)
	}
	if len(addrs) != 1 || addrs[0].Mailbox.Name != "Barry Gibbs" || addrs[0].Mailbox.Address.String() != "bg@example.com" {
		t.Fatalf("got %+v", addrs)
	}
}

func TestAddressList_BareAddrSpec(t *testing.T) {
	addrs, err := AddressList(nil, "bg@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(addrs) != 1 || addrs[0].Mailbox.Address.String() != "bg@example.com" {
		t.Fatalf("got %+v", addrs)
	}
}

func TestAddressList_MultipleCommaSeparated(t *testing.T) {
	addrs, err := AddressList(nil, "a@example.com, B <b@example.com>")
	if err != nil {
		t.Fatal(err)
	}
	if len(addrs) != 2 {
		t.Fatalf("got %d addresses", len(addrs))
	}
}

func TestAddressList_Group(t *testing.T) {
	addrs, err := AddressList(nil, "Undisclosed-recipients:;")
	if err != nil {
		t.Fatal(err)
	}
	if len(addrs) != 1 || !addrs[0].IsGroup() || addrs[0].Group.Name != "Undisclosed-recipients" {
		t.Fatalf("got %+v", addrs)
	}
}

func TestAddressList_GroupWithMembers(t *testing.T) {
	addrs, err := AddressList(nil, "Team: a@example.com, b@example.com;")
	if err != nil {
		t.Fatal(err)
	}
	if len(addrs) != 1 || len(addrs[0].Group.Mailboxes) != 2 {
		t.Fatalf("got %+v", addrs)
	}
}

func TestAddressList_QuotedDisplayName(t *testing.T) {
	addrs, err := AddressList(nil, `"Doe, John" <john@example.com>`)
	if err != nil {
		t.Fatal(err)
	}
	if len(addrs) != 1 || addrs[0].Mailbox.Name != "Doe, John" {
		t.Fatalf("got %+v", addrs)
	}
}

func TestAddressList_EncodedWordDisplayName(t *testing.T) {
	addrs, err := AddressList(nil, "=?utf-8?Q?H=C3=A9l=C3=A8ne?= <helene@example.com>")
	if err != nil {
		t.Fatal(err)
	}
	if len(addrs) != 1 || addrs[0].Mailbox.Name != "Hélène" {
		t.Fatalf("got %+v", addrs)
	}
}

func TestFormatAddressList_RoundTrips(t *testing.T) {
	addrs, err := AddressList(nil, "Barry Gibbs <bg@example.com>")
	if err != nil {
		t.Fatal(err)
	}
	out := FormatAddressList(nil, addrs)
	addrs2, err := AddressList(nil, out)
	if err != nil {
		t.Fatal(err)
	}
	if addrs2[0].Mailbox.Address.String() != "bg@example.com" {
		t.Fatalf("got %+v", addrs2)
	}
}

func TestMailbox_Single(t *testing.T) {
	mb, err := Mailbox(nil, "Alice <alice@example.com>")
	if err != nil {
		t.Fatal(err)
	}
	if mb.Name != "Alice" {
		t.Fatalf("got %+v", mb)
	}
}
