/*
Package runner drives a playback session from line-oriented commands.

It is the console of headless playback: a Runner reads commands through an
IOHandler, applies them to a ports.Controller and reports the outcome back
through the same handler. Two handlers ship with the package:

  - TextHandler: a prompt for humans ("play", "pause", "follow", "status").
  - JSONHandler: JSON Lines for scripts ({"cmd":"play"} in, one reply object out).

# Usage

	r := runner.NewRunner(
		runner.WithHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
		runner.WithLogger(logger),
	)

	if err := r.Run(ctx, player); err != nil && !errors.Is(err, io.EOF) {
		log.Fatal(err)
	}
*/
package runner
