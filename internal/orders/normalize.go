package orders

import (
	"encoding/json"
	"strings"

	"github.com/mnldiecast/storefront-backend/pkg/types"
)

// Receiver is the normalized delivery contact written onto the order
// header. The checkout form has changed shape several times, so the raw
// details bag is kept verbatim in shipping_details and these three columns
// are distilled from whatever keys are present.
type Receiver struct {
	Name    string
	Contact string
	Address string
}

func normalizeReceiver(details types.JSONMap) Receiver {
	r := Receiver{
		Name:    receiverName(details),
		Contact: firstString(details, "contact", "phone", "mobile", "contact_number"),
		Address: receiverAddress(details),
	}
	if r.Name == "" {
		r.Name = "unknown"
	}
	if r.Address == "" {
		// Last resort keeps the packing slip printable.
		r.Address = dumpJSON(details)
	}
	return r
}

func receiverName(details types.JSONMap) string {
	if name := firstString(details, "name", "full_name", "receiver_name"); name != "" {
		return name
	}
	first := firstString(details, "first_name")
	last := firstString(details, "last_name")
	return strings.TrimSpace(first + " " + last)
}

func receiverAddress(details types.JSONMap) string {
	if addr := firstString(details, "address", "full_address", "shipping_address"); addr != "" {
		return addr
	}
	parts := []string{}
	for _, key := range []string{"street", "barangay", "city", "province", "postal_code"} {
		if v := firstString(details, key); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

func firstString(details types.JSONMap, keys ...string) string {
	for _, key := range keys {
		if v, ok := details[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func dumpJSON(details types.JSONMap) string {
	if len(details) == 0 {
		return ""
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return ""
	}
	return string(raw)
}
