// Package diag defines the diagnostic model shared by the resolver, the
// code generators and the hydration audit.
//
// Fatal conditions (unreadable sources, "use client" violations, cycles under
// the fail policy) are Go errors. Everything else is reported through a
// Reporter as a Diagnostic with a stable Code:
//
//   - SYN: the TSX frontend could not make sense of a construct;
//   - DIR: directive boundary findings that are attached to the fatal error;
//   - RES: resolver findings such as dependency cycles;
//   - GEN: client code generator findings;
//   - IO / PRJ / OBS: driver, configuration and timing output;
//   - HYD: `weft hydrate` page audit.
//
// Package diag does no formatting; rendering lives in internal/diagfmt.
package diag
