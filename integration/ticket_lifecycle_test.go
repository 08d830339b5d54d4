package integration

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/escalation-service/internal/config"
	"github.com/spec-kit/escalation-service/internal/domain"
	"github.com/spec-kit/escalation-service/internal/events"
	"github.com/spec-kit/escalation-service/internal/repository"
	"github.com/spec-kit/escalation-service/internal/service"
	apperrors "github.com/spec-kit/escalation-service/pkg/util"
)

var _ = Describe("Ticket Lifecycle Integration", func() {
	var (
		ctx      context.Context
		repo     *repository.MemoryTicketRepository
		engine   *service.WorkflowService
		captured []events.Event

		l1 = domain.Actor{ID: "frontline-1", Role: domain.LevelL1}
		l2 = domain.Actor{ID: "specialist-1", Role: domain.LevelL2}
		l3 = domain.Actor{ID: "expert-1", Role: domain.LevelL3}
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = repository.NewMemoryTicketRepository()
		captured = nil

		dispatcher := events.NewInMemoryDispatcher()
		for _, eventType := range events.AllEventTypes {
			dispatcher.Subscribe(eventType, func(_ context.Context, event events.Event) error {
				captured = append(captured, event)
				return nil
			})
		}

		engine = service.NewWorkflowService(config.WorkflowConfig{LockResolved: true}, service.WorkflowDependencies{
			TicketRepo: repo,
			Dispatcher: dispatcher,
		})
	})

	createTicket := func() *domain.Ticket {
		ticket, err := engine.Create(ctx, l1, service.TicketCreateInput{
			Title:                  "Database replication lag",
			Description:            "Read replicas fall minutes behind during peak traffic",
			Category:               "database",
			Priority:               domain.TicketPriorityHigh,
			ExpectedCompletionDate: time.Now().Add(72 * time.Hour),
		})
		Expect(err).NotTo(HaveOccurred())
		return ticket
	}

	Context("When a ticket travels the full escalation path", func() {
		It("moves L1 to L2 to L3 and resolves, with a complete audit trail", func() {
			// 1. L1 creates the ticket
			ticket := createTicket()
			Expect(ticket.Status).To(Equal(domain.TicketStatusNew))
			Expect(ticket.CurrentLevel).To(Equal(domain.LevelL1))
			Expect(ticket.ActionLogs).To(HaveLen(1))

			// 2. L1 starts working it
			attending := domain.TicketStatusAttending
			ticket, err := engine.UpdateStatus(ctx, l1, ticket.ID, service.StatusUpdateInput{NewStatus: &attending})
			Expect(err).NotTo(HaveOccurred())
			Expect(ticket.Status).To(Equal(domain.TicketStatusAttending))

			// 3. L1 escalates to L2
			ticket, err = engine.Escalate(ctx, l1, ticket.ID, service.EscalateInput{
				ToLevel: domain.LevelL2,
				Reason:  "Needs database expertise",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ticket.CurrentLevel).To(Equal(domain.LevelL2))
			Expect(ticket.Status).To(Equal(domain.TicketStatusEscalated))
			Expect(ticket.Escalations).To(HaveLen(1))

			// 4. L2 classifies the severity
			ticket, err = engine.AssignCriticality(ctx, l2, ticket.ID, domain.CriticalityC1)
			Expect(err).NotTo(HaveOccurred())
			Expect(ticket.CriticalValue).To(Equal(domain.CriticalityC1))

			// 5. L2 escalates to L3
			ticket, err = engine.Escalate(ctx, l2, ticket.ID, service.EscalateInput{
				ToLevel: domain.LevelL3,
				Reason:  "Requires engine-level changes",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ticket.CurrentLevel).To(Equal(domain.LevelL3))
			Expect(ticket.Escalations).To(HaveLen(2))

			// 6. L3 resolves
			ticket, err = engine.Resolve(ctx, l3, ticket.ID, "Patched the replication scheduler")
			Expect(err).NotTo(HaveOccurred())
			Expect(ticket.Status).To(Equal(domain.TicketStatusResolved))

			// Audit trail: create, status, 2 escalations, criticality, resolve
			Expect(ticket.ActionLogs).To(HaveLen(6))
			actions := make([]string, 0, len(ticket.ActionLogs))
			for _, entry := range ticket.ActionLogs {
				actions = append(actions, entry.Action)
			}
			Expect(actions).To(Equal([]string{
				"Ticket created",
				"Status updated",
				"Ticket escalated",
				"Criticality assigned",
				"Ticket escalated",
				"Ticket resolved",
			}))

			// the escalation chain reads L1→L2→L3
			Expect(ticket.Escalations[0].FromLevel).To(Equal(domain.LevelL1))
			Expect(ticket.Escalations[0].ToLevel).To(Equal(domain.LevelL2))
			Expect(ticket.Escalations[1].FromLevel).To(Equal(domain.LevelL2))
			Expect(ticket.Escalations[1].ToLevel).To(Equal(domain.LevelL3))

			// one event per successful operation
			Expect(captured).To(HaveLen(6))

			// a resolved ticket is locked
			_, err = engine.Resolve(ctx, l3, ticket.ID, "again")
			Expect(err).To(HaveOccurred())
			Expect(errCode(err)).To(Equal("INVALID_TRANSITION"))
		})
	})

	Context("When a C3 ticket approaches the top tier", func() {
		It("is barred from ever reaching L3", func() {
			ticket := createTicket()

			_, err := engine.Escalate(ctx, l1, ticket.ID, service.EscalateInput{
				ToLevel: domain.LevelL2,
				Reason:  "Beyond first-line scope",
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = engine.AssignCriticality(ctx, l2, ticket.ID, domain.CriticalityC3)
			Expect(err).NotTo(HaveOccurred())

			_, err = engine.Escalate(ctx, l2, ticket.ID, service.EscalateInput{
				ToLevel: domain.LevelL3,
				Reason:  "Trying to push it up anyway",
			})
			Expect(err).To(HaveOccurred())
			Expect(errCode(err)).To(Equal("FORBIDDEN"))
			Expect(err.Error()).To(ContainSubstring("C3 tickets cannot be escalated to L3"))

			stored, err := engine.GetTicket(ctx, l2, ticket.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.CurrentLevel).To(Equal(domain.LevelL2))
		})
	})

	Context("When agents list their queues", func() {
		It("each tier sees only its visibility scope", func() {
			first := createTicket()
			second := createTicket()

			// first ticket moves to L2
			_, err := engine.Escalate(ctx, l1, first.ID, service.EscalateInput{
				ToLevel: domain.LevelL2,
				Reason:  "Needs a specialist",
			})
			Expect(err).NotTo(HaveOccurred())

			// L1 still sees both of its own tickets
			listed, err := engine.ListTickets(ctx, l1, service.TicketListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(listed).To(HaveLen(2))

			// L2 sees only the escalated one
			listed, err = engine.ListTickets(ctx, l2, service.TicketListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(listed).To(HaveLen(1))
			Expect(listed[0].ID).To(Equal(first.ID))

			// L3 sees nothing yet
			listed, err = engine.ListTickets(ctx, l3, service.TicketListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(listed).To(BeEmpty())

			// L2 cannot fetch the ticket still parked at L1
			_, err = engine.GetTicket(ctx, l2, second.ID)
			Expect(err).To(HaveOccurred())
			Expect(errCode(err)).To(Equal("FORBIDDEN"))
		})
	})
})

func errCode(err error) string {
	return apperrors.ToDomainError(err).Code
}
