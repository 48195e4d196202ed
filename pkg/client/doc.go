/*
Package client is a small HTTP client of the scheduler's status API, used
by the status and events commands of the CLI.

	c, err := client.NewClient("127.0.0.1:9090")
	if err != nil {
		return err
	}
	st, err := c.State(ctx)
*/
package client
