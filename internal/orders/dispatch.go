package orders

import (
	"github.com/dmarquess/localdrop-backend/pkg/db/models"
)

// Pairing matches one unassigned order with a candidate agent.
type Pairing struct {
	Order models.Order
	Agent models.DeliveryAgent
}

// roundRobinPairings distributes orders over agents strictly by position:
// order i goes to agent i mod len(agents). No load or distance weighting; an
// agent with zero deliveries and one with many are treated identically.
// Returns nil when there are no agents.
func roundRobinPairings(orders []models.Order, agents []models.DeliveryAgent) []Pairing {
	if len(agents) == 0 || len(orders) == 0 {
		return nil
	}
	pairings := make([]Pairing, 0, len(orders))
	for i, order := range orders {
		pairings = append(pairings, Pairing{
			Order: order,
			Agent: agents[i%len(agents)],
		})
	}
	return pairings
}
