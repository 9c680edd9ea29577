package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
	token   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bankcore-cli",
		Short: "BankCore CLI tool",
		Long:  `A command line interface for interacting with the BankCore API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the BankCore API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("BANKCORE_TOKEN"), "Bearer token for authenticated calls")

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new user with an account",
		Run: func(cmd *cobra.Command, args []string) {
			name, _ := cmd.Flags().GetString("name")
			birthDate, _ := cmd.Flags().GetString("birth-date")
			password, _ := cmd.Flags().GetString("password")
			email, _ := cmd.Flags().GetString("email")
			phone, _ := cmd.Flags().GetString("phone")
			deposit, _ := cmd.Flags().GetString("deposit")
			register(name, birthDate, password, email, phone, deposit)
		},
	}
	registerCmd.Flags().String("name", "", "User name")
	registerCmd.Flags().String("birth-date", "", "Date of birth (YYYY-MM-DD)")
	registerCmd.Flags().String("password", "", "Password")
	registerCmd.Flags().String("email", "", "Email address")
	registerCmd.Flags().String("phone", "", "Phone number")
	registerCmd.Flags().String("deposit", "0", "Initial deposit")
	rootCmd.AddCommand(registerCmd)

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and print an access token",
		Run: func(cmd *cobra.Command, args []string) {
			identifier, _ := cmd.Flags().GetString("identifier")
			password, _ := cmd.Flags().GetString("password")
			login(identifier, password)
		},
	}
	loginCmd.Flags().String("identifier", "", "Email or phone")
	loginCmd.Flags().String("password", "", "Password")
	rootCmd.AddCommand(loginCmd)

	transferCmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer money to another account",
		Run: func(cmd *cobra.Command, args []string) {
			recipient, _ := cmd.Flags().GetString("to")
			amount, _ := cmd.Flags().GetString("amount")
			transfer(recipient, amount)
		},
	}
	transferCmd.Flags().String("to", "", "Recipient account ID")
	transferCmd.Flags().String("amount", "", "Amount to transfer")
	rootCmd.AddCommand(transferCmd)

	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	getAccountCmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Get account details",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getAccount(args[0])
		},
	}

	ledgerCmd := &cobra.Command{
		Use:   "ledger [id]",
		Short: "List ledger entries for an account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			listLedger(args[0])
		},
	}

	accountCmd.AddCommand(getAccountCmd)
	accountCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(accountCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func register(name, birthDate, password, email, phone, deposit string) {
	body := map[string]string{
		"name":            name,
		"date_of_birth":   birthDate,
		"password":        password,
		"email":           email,
		"phone":           phone,
		"initial_balance": deposit,
	}
	doRequest(http.MethodPost, "/api/v1/auth/register", body)
}

func login(identifier, password string) {
	body := map[string]string{
		"identifier": identifier,
		"password":   password,
	}
	doRequest(http.MethodPost, "/api/v1/auth/login", body)
}

func transfer(recipient, amount string) {
	body := map[string]string{
		"recipient_account_id": recipient,
		"amount":               amount,
	}
	doRequest(http.MethodPost, "/api/v1/transfers", body)
}

func getAccount(id string) {
	doRequest(http.MethodGet, "/api/v1/accounts/"+id, nil)
}

func listLedger(id string) {
	doRequest(http.MethodGet, "/api/v1/accounts/"+id+"/ledger", nil)
}

func doRequest(method, path string, body any) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			fmt.Printf("Failed to encode request: %v\n", err)
			os.Exit(1)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		fmt.Printf("Failed to build request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		fmt.Printf("Request FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(raw))
		os.Exit(1)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(pretty.String())
}
