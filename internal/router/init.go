package router

import (
	"github.com/brightlens/brokerportal/internal/application"
	"github.com/brightlens/brokerportal/internal/container"
	pginfra "github.com/brightlens/brokerportal/internal/infrastructure/postgres"
	handlers "github.com/brightlens/brokerportal/internal/interface/http"
	"github.com/brightlens/brokerportal/internal/router/modules"
)

func buildAuthModule() *modules.AuthModule {
	pool := container.GetPGPool()
	users := pginfra.NewUserRepository(pool)
	brokers := pginfra.NewBrokerRepository(pool)
	otps := pginfra.NewOTPRepository(pool)

	svc := application.NewAuthService(
		users,
		brokers,
		otps,
		container.GetDispatcher(),
		container.GetJWT(),
		container.GetLogger(),
		container.GetConfig().CompanyName,
	)
	handler := handlers.NewAuthHandler(svc, container.GetJWT(), container.GetLogger())

	return modules.NewAuthModule(handler, container.GetJWT())
}

// InitModules initializes all application modules and registers them with
// the router registry. Called once during startup.
func InitModules(r *Registry) {
	r.Add(buildAuthModule())
}
