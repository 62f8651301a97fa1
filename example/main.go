package main

import (
	"fmt"
	"log"
	"os"

	"github.com/skarnu/confstruct"
)

type Config struct {
	Host     string            `default:"localhost"`
	Port     int               `default:"8080" validate:"gt=0,lt=65536"`
	Debug    bool              `default:"false"`
	APIToken confstruct.Secret `optional:"true"`
	Database struct {
		URL      string `default:"postgres://localhost/app"`
		PoolSize int    `default:"10"`
	}
}

func main() {
	os.Setenv("APP_PORT", "9000")
	os.Setenv("APP_API_TOKEN", "hunter2")

	cfg, err := confstruct.Load[Config](
		confstruct.WithProvider(confstruct.Dotenv(".env")),
		confstruct.WithProvider(confstruct.Env(confstruct.WithPrefix("APP"))),
		confstruct.WithTagValidation(),
	)
	if err != nil {
		log.Fatal(err)
	}

	confstruct.Print(cfg)

	// The secret payload needs an explicit accessor.
	fmt.Println("token:", cfg.APIToken)         // ***
	fmt.Println("token:", cfg.APIToken.Value()) // hunter2

	out, _ := confstruct.EncodeJSON(cfg)
	fmt.Println(string(out))
}
