package main

func main() {
	println(sum(10))
	println(find([]int{1, 2, 3}, 2))
}
