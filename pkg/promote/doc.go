/*
Package promote joins the pieces into the two halves of a promotion.

Generate compares the source environment's values with what they
were before, and writes the differences as a release note with one
sheet per target environment. Once someone has filled in the values
for an environment, Apply replays that sheet onto the environment's
own values and writes the result.
*/
package promote
