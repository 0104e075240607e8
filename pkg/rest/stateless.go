package rest

// A stateless REST server fitting and predicting in one call
type StateLessServer struct {
	BaseServer
}

// create a stateless REST server
func NewStateLessServer() *StateLessServer {
	server := &StateLessServer{
		BaseServer: *NewBaseServer(),
	}

	server.router.POST("/fitPredict", fitPredict)

	return server
}
