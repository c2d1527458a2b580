/*
Package tallysdk is a Go client for the Tally expense API.

Create an SDKClient for the public endpoints and to start a Session:

	client := tallysdk.NewSDKClient("http://localhost:8080")

	session, auth, err := client.Register(ctx, tallysdk.RegisterRequest{
		Username: "alice",
		Password: "s3cret",
		Email:    "alice@example.com",
	})

	// or, for a throwaway account that can be upgraded later
	session, auth, err = client.Guest(ctx)

Sessions carry the user's tokens and add the userId query parameter every
ledger endpoint expects:

	exp, err := session.AddExpense(ctx, tallysdk.ExpenseRequest{
		Amount:     decimal.RequireFromString("12.50"),
		CategoryID: categories[0].ID,
		Frequency:  "Monthly",
		Date:       "2024-03-01",
	})

When an access token is rejected with 401 the session refreshes once and
retries.

# Errors

Every failure is an *APIError carrying the HTTP status and the "error" code
from the response body. Compare with errors.Is against the predefined
values:

	if errors.Is(err, tallysdk.ErrConflict) {
		// username or email taken
	}
*/
package tallysdk
