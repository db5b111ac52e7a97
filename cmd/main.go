package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/cobra"

	"morning-blessing/handler"
	"morning-blessing/internal/config"
	"morning-blessing/internal/integrations/dashscope"
	"morning-blessing/internal/integrations/paramstore"
	"morning-blessing/internal/integrations/sms"
	"morning-blessing/internal/usecase"
)

var (
	noSMS          bool
	to             string
	recipientsFile string
)

func main() {
	config.LoadDotenv()

	// Scheduled Lambda deployments invoke the handler directly; everywhere
	// else this is a plain CLI.
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		runner, recipients, err := buildRunner(context.Background())
		if err != nil {
			slog.Error("failed to build runner", "err", err)
			os.Exit(1)
		}
		h, err := handler.NewHandler(runner, recipients)
		if err != nil {
			slog.Error("failed to create handler", "err", err)
			os.Exit(1)
		}
		lambda.Start(h.Handle)
		return
	}

	rootCmd := &cobra.Command{
		Use:           "morning-blessing",
		Short:         "Generate and send personalized morning blessing texts",
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.Flags().BoolVar(&noSMS, "no-sms", false, "do not send SMS, generate the report only")
	rootCmd.Flags().StringVar(&to, "to", "all", "recipients to process, comma-separated, default all")
	rootCmd.Flags().StringVar(&recipientsFile, "recipients", "", "path to the recipients file")

	if err := rootCmd.Execute(); err != nil {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	runner, recipients, err := buildRunner(ctx)
	if err != nil {
		return err
	}

	names := usecase.Resolve(to, recipients)
	results := runner.Run(ctx, names, noSMS)

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func buildRunner(ctx context.Context) (*usecase.Runner, *config.Recipients, error) {
	path := recipientsFile
	if path == "" {
		path = config.Getenv("RECIPIENTS_FILE", "recipients.yaml")
	}
	recipients, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	paramPrefix := config.Getenv("PARAM_PREFIX", "/morning-blessing")
	model := config.Getenv("MODEL_NAME", "qwen-turbo")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load AWS config: %w", err)
	}
	params, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		return nil, nil, fmt.Errorf("create paramstore client: %w", err)
	}

	llm, err := dashscope.NewClient(params, paramPrefix, model)
	if err != nil {
		return nil, nil, fmt.Errorf("create dashscope client: %w", err)
	}

	logger := slog.Default()
	querier, err := usecase.NewModelQuerier(llm, logger)
	if err != nil {
		return nil, nil, err
	}
	facts, err := usecase.NewFactService(querier)
	if err != nil {
		return nil, nil, err
	}
	greetings, err := usecase.NewGreetingService(recipients, params, facts, paramPrefix, logger)
	if err != nil {
		return nil, nil, err
	}

	dispatcher, err := buildDispatcher(logger)
	if err != nil {
		return nil, nil, err
	}

	runner, err := usecase.NewRunner(greetings, dispatcher, logger)
	if err != nil {
		return nil, nil, err
	}
	return runner, recipients, nil
}

// buildDispatcher creates the SMS dispatcher when delivery credentials are
// configured; without them the run is report-only.
func buildDispatcher(logger *slog.Logger) (usecase.Dispatcher, error) {
	keyID := os.Getenv("ALIBABA_CLOUD_ACCESS_KEY_ID")
	keySecret := os.Getenv("ALIBABA_CLOUD_ACCESS_KEY_SECRET")
	if keyID == "" || keySecret == "" {
		logger.Warn("SMS credentials not configured, running report-only")
		return nil, nil
	}

	signName := os.Getenv("SIGN_NAME")
	templateCode := os.Getenv("TEMPLATE_CODE")
	if signName == "" || templateCode == "" {
		return nil, fmt.Errorf("SIGN_NAME and TEMPLATE_CODE are required when SMS credentials are set")
	}

	api, err := sms.NewAPI(keyID, keySecret)
	if err != nil {
		return nil, err
	}
	return sms.New(api, signName, templateCode, logger)
}
