// Package moments implements the account side of the moments web app:
// email and password sign-in, sign-up with an emailed numeric code, JWT
// sessions and the HTTP handlers that render those flows.
//
// Sign-up:
//   - SignUpCreateHandler registers a pending user.
//   - PrepareVerificationHandler issues a code, stores only its SHA-256 hash
//     and hands the plain code to a CodeSender.
//   - AttemptVerificationHandler checks the code with a constant time compare,
//     tracks attempts and activates the user.
//
// The verify page renders a codeinput.Input. Browsers post UI events to the
// code-input endpoint and get the next slot state back, so the widget logic
// lives in one place.
//
// Activity sinks:
//   - ActivitySink receives sign-in, sign-up and verification events. Sinks
//     run best-effort; errors are logged and never block authentication.
package moments
