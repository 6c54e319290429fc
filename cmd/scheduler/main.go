package main

import (
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/JacobBogossian/DomainTracker/internal/lambdahandlers/scheduled"
)

func main() {
	handler, err := scheduled.NewHandler()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize scheduled handler: %v\n", err)
		os.Exit(1)
	}

	lambda.Start(handler.Handle)
}
