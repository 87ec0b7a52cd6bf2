package main

import (
	"fmt"
	"testing"

	"boxoffice/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestPlanTickets(t *testing.T) {
	std, vip := "std", "vip"
	zones := []models.Zone{
		{ID: "floor", CategoryID: &std, Capacity: 3},
		{ID: "empty", CategoryID: &std, Capacity: 0},
	}
	seats := []models.Seat{
		{ID: "A1", CategoryID: &vip},
		{ID: "A2", CategoryID: &vip},
	}

	n := 0
	tickets := planTickets(7, zones, seats, func() string { n++; return fmt.Sprintf("t%d", n) })

	assert.Len(t, tickets, 5)
	for _, tk := range tickets[:3] {
		assert.Equal(t, "floor", *tk.ZoneID)
		assert.Nil(t, tk.SeatID)
		assert.Equal(t, int64(7), tk.EventID)
		assert.Equal(t, models.UnitFree, tk.Status)
	}
	assert.Equal(t, "A1", *tickets[3].SeatID)
	assert.Equal(t, "A2", *tickets[4].SeatID)
	assert.Nil(t, tickets[4].ZoneID)
	assert.Equal(t, "t5", tickets[4].ID)
}

func TestCategoriesOf(t *testing.T) {
	std, vip, blank := "std", "vip", ""
	zones := []models.Zone{{ID: "z1", CategoryID: &vip}, {ID: "z2"}, {ID: "z3", CategoryID: &blank}}
	seats := []models.Seat{{ID: "s1", CategoryID: &std}, {ID: "s2", CategoryID: &vip}}

	assert.Equal(t, []string{"std", "vip"}, categoriesOf(zones, seats))
	assert.Empty(t, categoriesOf(nil, nil))
}
