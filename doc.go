// Package sqlgate provides a Go client for a SQL-over-HTTP gateway.
//
// The gateway exposes two operations, Execute and CreateSession, and threads
// an opaque server-issued session through sequential requests. This package
// handles the wire protocol for both: building authenticated requests,
// carrying the session across calls so autocommit and transaction state
// survive, and decoding the gateway's length-prefixed base64 row encoding
// back into typed values.
//
// # Basic Usage
//
//	client := sqlgate.NewClient("myuser", "mypassword",
//		sqlgate.WithBaseURL("https://gateway.example.com"))
//
//	result, err := client.Exec(context.Background(), "SELECT id, name FROM users")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	records, err := result.Records()
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, record := range records {
//		fmt.Println(record["id"], record["name"])
//	}
//
// # Typed Decoding
//
// Results decode directly into structs, matching columns to fields by `db`
// tag or lowercased field name:
//
//	type UserRow struct {
//		ID   int64  `db:"id"`
//		Name string `db:"name"`
//	}
//	users, err := sqlgate.DecodeRows[UserRow](result)
//
// # Transactions
//
// Transactions run on an isolated client scope with its own session:
//
//	err := client.Transaction(ctx, func(ctx context.Context, tx *sqlgate.Client) error {
//		if _, err := tx.Exec(ctx, "INSERT INTO users (name) VALUES ('ada')"); err != nil {
//			return err
//		}
//		_, err := tx.Exec(ctx, "UPDATE counters SET n = n + 1")
//		return err
//	})
//
// Any error from the body rolls the transaction back and is returned to the
// caller unchanged.
//
// # Error Handling
//
// Failures carry a category that distinguishes transport problems from
// statement rejections and malformed responses:
//
//	if _, err := client.Exec(ctx, sql); err != nil {
//		switch {
//		case sqlgate.IsStatementError(err):
//			// the gateway rejected the SQL
//		case sqlgate.IsTransportError(err):
//			// network failure or non-success HTTP status
//		}
//	}
//
// # Thread Safety
//
// A Client serializes its own calls so the gateway session is never updated
// by two requests at once. Independent clients (including transaction
// scopes) share no state and may be used concurrently.
package sqlgate
