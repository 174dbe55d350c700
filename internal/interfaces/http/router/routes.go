package router

import (
	"github.com/gin-gonic/gin"
	"github.com/smartqueue/backend/internal/interfaces/http/handler"
	"github.com/smartqueue/backend/internal/interfaces/http/middleware"
)

// Handlers are the API handlers mounted by APIGroups
type Handlers struct {
	Auth          *handler.AuthHandler
	Users         *handler.UserHandler
	Organizations *handler.OrganizationHandler
	Services      *handler.ServiceHandler
	Queues        *handler.QueueHandler
	Tickets       *handler.TicketHandler
	Appointments  *handler.AppointmentHandler
	Payments      *handler.PaymentHandler
	Notifications *handler.NotificationHandler
	Outbox        *handler.OutboxHandler
	System        *handler.SystemHandler

	// AuthGuard runs before register and login, typically a stricter rate limit
	AuthGuard gin.HandlerFunc
}

// PublicPaths are the API paths reachable without a token
func PublicPaths(basePath string) (paths, prefixes []string) {
	return []string{
			"/health",
			basePath + "/auth/register",
			basePath + "/auth/login",
			basePath + "/system/info",
		}, []string{
			"/swagger",
			basePath + "/payments/callback/",
		}
}

// APIGroups builds the route groups of the API. Services check the actor
// themselves; the role middleware here rejects obvious mismatches early.
func APIGroups(h Handlers) []RouteRegistrar {
	staff := middleware.RequireStaff()
	admin := middleware.RequireAdmin()

	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/register", guarded(h.AuthGuard, h.Auth.Register)...)
	authRoutes.POST("/login", guarded(h.AuthGuard, h.Auth.Login)...)
	authRoutes.POST("/logout", h.Auth.Logout)
	authRoutes.GET("/me", h.Auth.Me)
	authRoutes.PUT("/password", h.Auth.ChangePassword)

	userRoutes := NewDomainGroup("users", "/users").Use(staff)
	userRoutes.GET("/staff", h.Users.ListStaff)
	userRoutes.POST("/staff", admin, h.Users.CreateStaff)
	userRoutes.POST("/staff/:id/deactivate", admin, h.Users.DeactivateStaff)

	organizationRoutes := NewDomainGroup("organizations", "/organizations")
	organizationRoutes.GET("", h.Organizations.List)
	organizationRoutes.POST("", h.Organizations.Create)
	organizationRoutes.GET("/:id", h.Organizations.Get)
	organizationRoutes.PUT("/:id", h.Organizations.Update)

	serviceRoutes := NewDomainGroup("services", "/services")
	serviceRoutes.GET("", h.Services.List)
	serviceRoutes.POST("", h.Services.Create)
	serviceRoutes.GET("/:id", h.Services.Get)
	serviceRoutes.PUT("/:id", h.Services.Update)
	serviceRoutes.POST("/:id/deactivate", h.Services.Deactivate)

	queueRoutes := NewDomainGroup("queues", "/queues")
	queueRoutes.GET("", h.Queues.List)
	queueRoutes.POST("", h.Queues.Create)
	queueRoutes.GET("/:id", h.Queues.Get)
	queueRoutes.POST("/:id/take-ticket", h.Queues.TakeTicket)
	queueOperator := queueRoutes.Group("queue-operator", "").Use(staff)
	queueOperator.PUT("/:id", h.Queues.Update)
	queueOperator.POST("/:id/pause", h.Queues.Pause)
	queueOperator.POST("/:id/resume", h.Queues.Resume)
	queueOperator.POST("/:id/status", h.Queues.ChangeStatus)
	queueOperator.POST("/:id/reset-daily", h.Queues.ResetDaily)
	queueOperator.POST("/:id/call-next", h.Queues.CallNext)
	queueOperator.GET("/:id/dashboard", h.Queues.Dashboard)
	queueOperator.GET("/:id/stats", h.Queues.Stats)
	queueOperator.GET("/:id/tickets", h.Queues.Tickets)
	queueOperator.GET("/:id/report", h.Queues.Report)

	ticketRoutes := NewDomainGroup("tickets", "/tickets")
	ticketRoutes.GET("/mine", h.Tickets.Mine)
	ticketRoutes.GET("/:id", h.Tickets.Get)
	ticketRoutes.GET("/:id/slip.pdf", h.Tickets.Slip)
	ticketRoutes.POST("/:id/cancel", h.Tickets.Cancel)
	ticketRoutes.POST("/:id/extend", h.Tickets.Extend)
	ticketRoutes.POST("/:id/rate", h.Tickets.Rate)
	ticketAgent := ticketRoutes.Group("ticket-agent", "").Use(staff)
	ticketAgent.GET("/stats", h.Tickets.Stats)
	ticketAgent.POST("/:id/call-again", h.Tickets.CallAgain)
	ticketAgent.POST("/:id/start", h.Tickets.Start)
	ticketAgent.POST("/:id/serve", h.Tickets.Serve)
	ticketAgent.POST("/:id/no-show", h.Tickets.NoShow)
	ticketAgent.POST("/:id/skip", h.Tickets.Skip)
	ticketAgent.POST("/:id/transfer", h.Tickets.Transfer)

	appointmentRoutes := NewDomainGroup("appointments", "/appointments")
	appointmentRoutes.GET("", h.Appointments.List)
	appointmentRoutes.POST("", h.Appointments.Book)
	appointmentRoutes.GET("/:id", h.Appointments.Get)
	appointmentRoutes.POST("/:id/cancel", h.Appointments.Cancel)
	appointmentRoutes.POST("/:id/reschedule", h.Appointments.Reschedule)
	appointmentRoutes.POST("/:id/check-in", h.Appointments.CheckIn)
	appointmentStaff := appointmentRoutes.Group("appointment-staff", "").Use(staff)
	appointmentStaff.POST("/:id/confirm", h.Appointments.Confirm)
	appointmentStaff.POST("/:id/start", h.Appointments.Start)
	appointmentStaff.POST("/:id/complete", h.Appointments.Complete)
	appointmentStaff.POST("/:id/no-show", h.Appointments.NoShow)

	paymentRoutes := NewDomainGroup("payments", "/payments")
	paymentRoutes.POST("/callback/:provider", h.Payments.Callback)
	paymentRoutes.GET("/providers", h.Payments.Providers)
	paymentRoutes.GET("", h.Payments.List)
	paymentRoutes.POST("", h.Payments.Initiate)
	paymentRoutes.GET("/:id", h.Payments.Get)
	paymentRoutes.POST("/:id/confirm-cash", staff, h.Payments.ConfirmCash)

	notificationRoutes := NewDomainGroup("notifications", "/notifications")
	notificationRoutes.GET("", h.Notifications.List)

	systemRoutes := NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", h.System.GetSystemInfo)
	outboxRoutes := systemRoutes.Group("outbox", "/outbox").Use(middleware.RequireSuperAdmin())
	outboxRoutes.GET("/stats", h.Outbox.Stats)
	outboxRoutes.GET("/dead", h.Outbox.DeadEntries)
	outboxRoutes.POST("/dead/retry-all", h.Outbox.RetryAll)
	outboxRoutes.POST("/dead/:id/retry", h.Outbox.Retry)

	return []RouteRegistrar{
		authRoutes,
		userRoutes,
		organizationRoutes,
		serviceRoutes,
		queueRoutes,
		ticketRoutes,
		appointmentRoutes,
		paymentRoutes,
		notificationRoutes,
		systemRoutes,
	}
}

func guarded(guard, next gin.HandlerFunc) []gin.HandlerFunc {
	if guard == nil {
		return []gin.HandlerFunc{next}
	}
	return []gin.HandlerFunc{guard, next}
}

// Mount registers the health check and the API on engine
func Mount(engine *gin.Engine, r *Router, h Handlers) {
	engine.GET("/health", h.System.Health)
	r.Register(APIGroups(h)...)
	r.Setup()
}
