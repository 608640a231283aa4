package app

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"hotel_booking/internal/domain"
)

// Fingerprint identifies what a create request books: the hotel, the room
// lines and the stay dates. Room line order does not matter.
func Fingerprint(req domain.CreateReservationRequest) string {
	lines := append([]domain.RoomLine(nil), req.Rooms...)
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].RoomTypeID != lines[j].RoomTypeID {
			return lines[i].RoomTypeID < lines[j].RoomTypeID
		}
		return lines[i].Quantity < lines[j].Quantity
	})

	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s", req.HotelID,
		domain.DateOnly(req.CheckIn).Format("2006-01-02"),
		domain.DateOnly(req.CheckOut).Format("2006-01-02"))
	for _, l := range lines {
		fmt.Fprintf(h, "|%d:%d", l.RoomTypeID, l.Quantity)
	}
	return hex.EncodeToString(h.Sum(nil))
}
