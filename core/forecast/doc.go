// Package forecast supplies the exogenous series a storage run consumes:
// prices for arbitrage and demand/generation for self-consumption. Series are
// read-only once handed to the optimizer.
package forecast
