package rest

// A statefull REST server keeping fitted models by name
type StateFullServer struct {
	BaseServer
}

// create a statefull REST server
func NewStateFullServer() *StateFullServer {
	server := &StateFullServer{
		BaseServer: *NewBaseServer(),
	}

	server.router.POST("/fit/:name", fit)
	server.router.GET("/getModels", getModels)
	server.router.GET("/getModel/:name", getModel)
	server.router.POST("/predict/:name", predict)
	server.router.GET("/rebuild/:name", rebuild)
	server.router.GET("/strip/:name", strip)
	server.router.GET("/removeModel/:name", removeModel)

	server.router.POST("/fitPredict", fitPredict)

	return server
}
