package main

import (
	"context"
	"time"

	"github.com/shandysiswandi/goraid/internal/app"
)

func main() {
	application := app.New()
	wait := application.Start()
	<-wait // blocks until SIGINT, SIGTERM or SIGHUP

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	application.Stop(ctx)
}
