package main

import (
	"flag"
	"fmt"
	"os"

	"tempstream/backend/libs/devicetoken"
)

func main() {
	deviceID := flag.Int64("device", 0, "device id the token is issued for")
	secret := flag.String("secret", os.Getenv("INGESTION_JWT_SECRET"), "HMAC secret shared with the ingestion service")
	ttl := flag.Duration("ttl", 0, "token lifetime, default one year")
	flag.Parse()

	if *deviceID == 0 {
		fmt.Fprintln(os.Stderr, "devicetoken: -device is required")
		os.Exit(2)
	}

	issuer, err := devicetoken.NewIssuer(*secret, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	token, err := issuer.Issue(*deviceID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
