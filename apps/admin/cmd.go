package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"

	echoapi "github.com/trezcool/ratiba/apps/api/echo"
	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/attendance"
	"github.com/trezcool/ratiba/core/course"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/storage/database"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db        *sql.DB
	conf      *core.Config
	courseSvc *course.Service
	schedSvc  *schedule.Service
	attSvc    *attendance.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createdb                  - create the database and app user if missing")
	fmt.Println("  migrate SUBCOMMAND [ARGS] - run DB migrations (goose subcommands)")
	fmt.Println("  generateahead             - create upcoming attendance records (rolling window)")
	fmt.Println("  markabsent                - mark today's unresolved attendance records absent")
	fmt.Println("  regenerate -course ID     - rebuild a course's upcoming lectures")
	fmt.Println("  token -subject SUBJECT [-instructor ID] [-admin] - mint an API token")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	regenerateCmd := flag.NewFlagSet("regenerate", flag.ExitOnError)
	regenerateCourse := regenerateCmd.String("course", "", "The course ID to regenerate lectures for.")

	tokenCmd := flag.NewFlagSet("token", flag.ExitOnError)
	tokenSubject := tokenCmd.String("subject", "", "The token subject (device or person identifier).")
	tokenInstructor := tokenCmd.String("instructor", "", "Optional instructor ID carried in the claims.")
	tokenAdmin := tokenCmd.Bool("admin", false, "Mint an admin token.")

	ctx := context.Background()

	switch args[1] {
	case "createdb":
		return database.CreateIfNotExist(cli.conf)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "generateahead":
		created, err := cli.attSvc.GenerateAhead(ctx)
		if err != nil {
			return err
		}
		logger.Printf("created %d attendance records\n", created)
		return nil
	case "markabsent":
		swept, err := cli.attSvc.SweepAbsent(ctx)
		if err != nil {
			return err
		}
		logger.Printf("marked %d instructors absent\n", swept)
		return nil
	case "regenerate":
		if err := regenerateCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *regenerateCourse == "" {
			regenerateCmd.Usage()
			return errHelp
		}
		return cli.regenerate(ctx, *regenerateCourse)
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *tokenSubject == "" {
			tokenCmd.Usage()
			return errHelp
		}
		token, err := echoapi.GenerateToken(echoapi.NewClaims(*tokenSubject, *tokenInstructor, *tokenAdmin))
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) regenerate(ctx context.Context, courseID string) error {
	crs, err := cli.courseSvc.Get(ctx, courseID)
	if err != nil {
		return err
	}
	if !crs.HasGenerationBound() {
		return errors.New("an end date or a target lecture count is required to generate lectures")
	}
	return cli.schedSvc.Regenerate(ctx, courseID)
}
