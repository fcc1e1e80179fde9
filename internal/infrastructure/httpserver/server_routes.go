package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	v := s.echo.Group("/verification")
	v.POST("", s.sendVerification, s.middleware.RateLimit.PerClientIP("send"))
	v.GET("/start", s.startVerification)
	v.POST("/confirm", s.confirmVerification)
	v.GET("/session", s.sessionStatus)
}
