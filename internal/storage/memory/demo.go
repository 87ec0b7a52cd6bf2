package memory

import (
	"encoding/json"
	"fmt"
	"time"

	"boxoffice/internal/models"

	"github.com/shopspring/decimal"
)

const (
	DemoVenueID int64 = 1
	DemoEventID int64 = 1
)

type demoElement struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Width      float64   `json:"width,omitempty"`
	Height     float64   `json:"height,omitempty"`
	Points     []float64 `json:"points,omitempty"`
	CategoryID string    `json:"categoryId,omitempty"`
	Capacity   int       `json:"capacity,omitempty"`
	IsBookable bool      `json:"isBookable"`
	Label      string    `json:"label,omitempty"`
}

// SeedDemo loads a small venue with a stage, a standing floor, a balcony and
// two rows of VIP seats, plus one on-sale event with tickets for all of it.
func SeedDemo(s *Store) {
	elements := []demoElement{
		{ID: "stage", Kind: "stage", X: 300, Y: 20, Width: 400, Height: 60, Label: "Stage"},
		{ID: "floor", Kind: "section", X: 250, Y: 120, Width: 500, Height: 200, CategoryID: "std", Capacity: 50, IsBookable: true, Label: "Floor"},
		{ID: "balcony", Kind: "polygon", X: 200, Y: 420, Points: []float64{0, 0, 600, 0, 550, 120, 50, 120}, CategoryID: "std", Capacity: 20, IsBookable: true, Label: "Balcony"},
	}

	var seats []models.Seat
	for row := 0; row < 2; row++ {
		for n := 1; n <= 10; n++ {
			id := fmt.Sprintf("vip-%c%d", 'A'+row, n)
			x := 260 + float64(n-1)*50
			y := 350 + float64(row)*30
			elements = append(elements, demoElement{ID: id, Kind: "seat", X: x, Y: y, CategoryID: "vip", IsBookable: true, Label: fmt.Sprintf("%c%d", 'A'+row, n)})
			seats = append(seats, models.Seat{ID: id, VenueID: DemoVenueID, Label: fmt.Sprintf("%c%d", 'A'+row, n), CategoryID: strPtr("vip"), X: x, Y: y})
		}
	}

	doc, _ := json.Marshal(map[string]any{
		"elements": elements,
		"categories": map[string]any{
			"std": map[string]string{"color": "#4f8ef7", "name": "Standard"},
			"vip": map[string]string{"color": "#e0a800", "name": "VIP"},
		},
	})

	s.AddVenue(models.Venue{ID: DemoVenueID, Name: "Demo Hall", Layout: doc, UpdatedAt: time.Now()})
	s.AddEvent(models.Event{ID: DemoEventID, VenueID: DemoVenueID, Title: "Demo Night", StartsAt: time.Now().Add(30 * 24 * time.Hour)})

	s.AddZone(models.Zone{ID: "floor", VenueID: DemoVenueID, CategoryID: strPtr("std"), Name: "Floor", Capacity: 50,
		Shape: models.ShapeDescriptor{X: 250, Y: 120, Width: 500, Height: 200}})
	s.AddZone(models.Zone{ID: "balcony", VenueID: DemoVenueID, CategoryID: strPtr("std"), Name: "Balcony", Capacity: 20,
		Shape: models.ShapeDescriptor{X: 200, Y: 420, Points: []float64{0, 0, 600, 0, 550, 120, 50, 120}}})

	for _, z := range []struct {
		id string
		n  int
	}{{"floor", 50}, {"balcony", 20}} {
		for i := 1; i <= z.n; i++ {
			s.AddTicket(models.Ticket{ID: fmt.Sprintf("%s-%03d", z.id, i), EventID: DemoEventID, ZoneID: strPtr(z.id)})
		}
	}
	for _, seat := range seats {
		s.AddSeat(seat)
		s.AddTicket(models.Ticket{ID: "t-" + seat.ID, EventID: DemoEventID, SeatID: strPtr(seat.ID)})
	}

	s.SetPrice(models.CategoryPrice{EventID: DemoEventID, CategoryID: "std", Price: decimal.NewFromInt(40), Currency: "USD"})
	s.SetPrice(models.CategoryPrice{EventID: DemoEventID, CategoryID: "vip", Price: decimal.RequireFromString("120.50"), Currency: "USD"})
}

func strPtr(s string) *string { return &s }
