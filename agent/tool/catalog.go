package tool

import (
	"fmt"

	catalogx "github.com/tanpawarit/driftdesk-agent/agent/catalog"
	contractx "github.com/tanpawarit/driftdesk-agent/agent/contract"
)

// Backends are the collaborators behind the tool catalog. Only Catalog is
// mandatory; tools whose backend is nil report a configuration error.
type Backends struct {
	Catalog   *catalogx.Catalog
	Vectors   VectorSearcher
	Tickets   TicketStore
	Escalator Escalator
	Calendar  CalendarClient
	CRM       CRMClient
}

// Build registers every tool of the fixed catalog.
func Build(b Backends) (*Registry, error) {
	if b.Catalog == nil {
		return nil, fmt.Errorf("%w: product catalog is required", contractx.ErrValidation)
	}

	ticket := ticketTool{store: b.Tickets}
	return NewRegistry(
		searchProductsTool{catalog: b.Catalog},
		searchProductVectorsTool{searcher: b.Vectors},
		getPricingTool{catalog: b.Catalog},
		checkOrderStatusTool{catalog: b.Catalog},
		openSupportTicketTool{},
		createSupportTicketTool{ticket},
		addTicketUpdateTool{ticket},
		getTicketTool{ticket},
		listOpenTicketsTool{ticket},
		closeTicketTool{ticket},
		escalateSupportEmailTool{escalator: b.Escalator},
		checkCalendarAvailabilityTool{calendar: b.Calendar},
		scheduleCalendarEventTool{calendar: b.Calendar},
		createCRMContactTool{crm: b.CRM},
	)
}

// AgentTools lists the tools an agent may call. Support manages tickets in the
// database when one is available and falls back to stateless tickets otherwise.
func AgentTools(agentType contractx.AgentType, ticketDB bool) []string {
	switch agentType {
	case contractx.AgentTypeSales:
		return []string{
			SearchProducts,
			SearchProductVectors,
			GetPricing,
			CheckCalendarAvailability,
			ScheduleCalendarEvent,
			CreateCRMContact,
		}
	case contractx.AgentTypeSupport:
		if !ticketDB {
			return []string{
				SearchProductVectors,
				CheckOrderStatus,
				OpenSupportTicket,
				EscalateSupportEmail,
			}
		}
		return []string{
			SearchProductVectors,
			CheckOrderStatus,
			CreateSupportTicket,
			AddTicketUpdate,
			GetTicket,
			ListOpenTickets,
			CloseTicket,
			EscalateSupportEmail,
		}
	default:
		return nil
	}
}

func BuildForAgent(r *Registry, agentType contractx.AgentType, ticketDB bool) (*Registry, error) {
	names := AgentTools(agentType, ticketDB)
	if names == nil {
		return nil, fmt.Errorf("%w: no tools for agent %q", contractx.ErrValidation, agentType)
	}
	return r.Subset(names...)
}
