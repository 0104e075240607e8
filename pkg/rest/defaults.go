package rest

/**
 * Parameters
 */

// model name recorded for stateless fit-and-predict calls
const StatelessModelName = "fitPredict"

// query parameter selecting the pseudo-inverse rebuild
const RobustParam = "robust"
